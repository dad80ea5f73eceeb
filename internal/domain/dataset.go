package domain

import "time"

// CleanReport accounts for every row of the raw input. Rows dropped for
// an unparseable date or amount are excluded from the cleaned set but
// surfaced here so the loss is visible to the caller.
type CleanReport struct {
	RowsRead                int    `json:"rows_read"`
	RowsKept                int    `json:"rows_kept"`
	RowsDroppedUnsuccessful int    `json:"rows_dropped_unsuccessful"`
	RowsDroppedBadDate      int    `json:"rows_dropped_bad_date"`
	RowsDroppedBadAmount    int    `json:"rows_dropped_bad_amount"`
	Checksum                string `json:"checksum"` // sha256 of the raw input bytes
}

// Dataset is one uploaded transaction file after cleaning. Records are
// read-only once the dataset is stored.
type Dataset struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	SessionID  string      `json:"-"`
	UploadedAt time.Time   `json:"uploaded_at"`
	Report     CleanReport `json:"report"`

	// FirstDate/LastDate span the cleaned records; zero when empty.
	FirstDate time.Time `json:"first_date"`
	LastDate  time.Time `json:"last_date"`

	Records []Transaction `json:"-"`
}
