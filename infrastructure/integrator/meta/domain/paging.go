package metadomain

import jsoniter "github.com/json-iterator/go"

type Cursors struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

type Paging struct {
	Cursors Cursors `json:"cursors"`
	Next    string  `json:"next"`
}

// Page is one response of a paged Graph edge
type Page struct {
	Data   []jsoniter.RawMessage `json:"data"`
	Paging Paging                `json:"paging"`
}
