package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"checkin-service/internal/apperr"
	"checkin-service/internal/model"
	"checkin-service/internal/store"
)

// Ledger owns the append-only attendance history. Records are never
// mutated or removed; deleting a user leaves their history intact.
type Ledger struct {
	records store.RecordStore
}

func NewLedger(records store.RecordStore) *Ledger {
	return &Ledger{records: records}
}

// Append assigns the record a fresh identity and a server timestamp, then
// persists it. The write is all-or-nothing: on a storage fault nothing is
// kept and the error surfaces as Internal.
func (l *Ledger) Append(ctx context.Context, record *model.AttendanceRecord) error {
	record.ID = uuid.NewString()
	if record.Timestamp == 0 {
		record.Timestamp = time.Now().Unix()
	}
	if err := l.records.Append(ctx, record); err != nil {
		return apperr.Wrap(err, apperr.Internal, "appending attendance record")
	}
	return nil
}

// ListByUser returns a user's records newest-first, for the user themself
// or an admin. Admin results are filtered to the caller's tenant via the
// admin snapshot on each record, so a deleted user's history is still
// visible to the admin who owned them, and never to anyone else.
func (l *Ledger) ListByUser(ctx context.Context, caller Identity, userID string) ([]model.AttendanceRecord, error) {
	if caller.UserID != userID && !caller.IsAdmin() {
		return nil, apperr.New(apperr.Forbidden, "not allowed to read this user's records")
	}

	records, err := l.records.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, "listing attendance records")
	}
	if caller.UserID == userID {
		return records, nil
	}

	scoped := records[:0:0]
	for _, record := range records {
		if record.AdminID == caller.UserID {
			scoped = append(scoped, record)
		}
	}
	return scoped, nil
}

// ListByAdmin returns all records of users currently or formerly owned by
// the calling admin, newest-first.
func (l *Ledger) ListByAdmin(ctx context.Context, caller Identity) ([]model.AttendanceRecord, error) {
	if !caller.IsAdmin() {
		return nil, apperr.New(apperr.Forbidden, "only admins can list tenant records")
	}
	records, err := l.records.ListByAdmin(ctx, caller.UserID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, "listing attendance records")
	}
	return records, nil
}
