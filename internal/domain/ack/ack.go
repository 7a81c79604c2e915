// Package ack holds the acknowledgment shapes returned by mutation endpoints.
// A mutation that matches nothing is still acknowledged, with zero counts.
package ack

type Insert struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

type Update struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

type Delete struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

func Inserted(id string) Insert {
	return Insert{Acknowledged: true, InsertedID: id}
}

func Updated(matched, modified int64) Update {
	return Update{Acknowledged: true, MatchedCount: matched, ModifiedCount: modified}
}

func Deleted(n int64) Delete {
	return Delete{Acknowledged: true, DeletedCount: n}
}
