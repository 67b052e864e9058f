package telegram

import (
	"testing"

	"github.com/gotd/td/tg"
)

func TestCollectPage(t *testing.T) {
	batch := []tg.MessageClass{
		&tg.Message{ID: 50, Message: "hello", Date: 1700000000},
		&tg.MessageService{ID: 49},
		&tg.Message{ID: 48, Message: "world", Date: 1700000100},
	}

	out, offset := collectPage(nil, batch)

	if len(out) != 2 || out[0].ID != 50 || out[1].ID != 48 {
		t.Errorf("collected %+v, want messages 50 and 48", out)
	}
	if offset != 48 {
		t.Errorf("offset = %d, want 48", offset)
	}
}

func TestCollectPageAdvancesPastServiceRecords(t *testing.T) {
	// A page made entirely of service records (joins, pins) must still
	// move the offset forward, or the pager would request the same page
	// again indefinitely.
	batch := make([]tg.MessageClass, 0, historyPageSize)
	for id := 200; id > 200-historyPageSize; id-- {
		batch = append(batch, &tg.MessageService{ID: id})
	}

	out, offset := collectPage(nil, batch)

	if len(out) != 0 {
		t.Errorf("collected %d messages from service records, want 0", len(out))
	}
	if offset != 200-historyPageSize+1 {
		t.Errorf("offset = %d, want %d", offset, 200-historyPageSize+1)
	}
}
