package entity

import "time"

// Popularity is a search key with the number of times it was searched.
type Popularity struct {
	Word  string `json:"word"`
	Count int64  `json:"count"`
}

// ActivitySnapshot is a point-in-time image of the activity registers,
// each ordered most recent (or most popular) first.
type ActivitySnapshot struct {
	Searches []string     `json:"searches"`
	Indexes  []string     `json:"indexes"`
	Popular  []Popularity `json:"popular"`
	TakenAt  time.Time    `json:"takenAt"`
}

// UploadProgress reports the state of a bulk import.
type UploadProgress struct {
	JobID     string `json:"jobId,omitempty"`
	Uploading bool   `json:"uploading"`
	Total     int64  `json:"total"`
	Uploaded  int64  `json:"uploaded"`
	Skipped   int64  `json:"skipped"`
	Failed    int64  `json:"failed"`
}
