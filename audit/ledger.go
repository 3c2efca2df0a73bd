// Package audit records every generation of a weak static in a database
// table, so construction and teardown history survives the instances.
package audit

import (
	"context"
	"fmt"
	"os"
	"time"

	weakstatic "github.com/hnhuaxi/weakstatic"
	"github.com/hnhuaxi/weakstatic/singleton"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Generation struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Static    string     `gorm:"size:191;uniqueIndex:idx_generation" json:"static"`
	Process   string     `gorm:"size:191;uniqueIndex:idx_generation" json:"process"`
	Seq       uint64     `gorm:"uniqueIndex:idx_generation" json:"seq"`
	CreatedAt time.Time  `json:"created_at"`
	DroppedAt *time.Time `json:"dropped_at,omitempty"`
	DropError string     `gorm:"size:1024" json:"drop_error,omitempty"`
}

func (Generation) TableName() string {
	return "weakstatic_generations"
}

// Ledger is a singleton.Observer writing one Generation row per instance.
// It holds a handle on its database static from NewLedger until Close, so
// the connection outlives the instances it records.
type Ledger struct {
	handle  *singleton.Handle[*gorm.DB]
	log     *zap.SugaredLogger
	process string
	now     func() time.Time
}

func NewLedger(db *singleton.Static[*gorm.DB], log *zap.Logger) (*Ledger, error) {
	h, err := db.Acquire()
	if err != nil {
		return nil, err
	}

	if err := h.Value().AutoMigrate(&Generation{}); err != nil {
		h.Release()
		return nil, err
	}

	if log == nil {
		log = zap.NewNop()
	}

	host, _ := os.Hostname()

	return &Ledger{
		handle:  h,
		log:     log.Sugar(),
		process: fmt.Sprintf("%s/%d", host, os.Getpid()),
		now:     time.Now,
	}, nil
}

func (l *Ledger) scope(ctx context.Context) *gorm.DB {
	return l.handle.Value().WithContext(ctx)
}

func (l *Ledger) Created(name string, generation uint64) {
	row := &Generation{
		Static:    name,
		Process:   l.process,
		Seq:       generation,
		CreatedAt: l.now(),
	}

	err := l.scope(context.Background()).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error
	if err != nil && !weakstatic.CheckDuplicate(err) {
		l.log.Warnf("record created %s/%d: %s", name, generation, err)
	}
}

func (l *Ledger) Dropped(name string, generation uint64, err error) {
	var (
		now     = l.now()
		updates = map[string]interface{}{"dropped_at": &now}
	)

	if err != nil {
		updates["drop_error"] = err.Error()
	}

	res := l.scope(context.Background()).
		Model(&Generation{}).
		Where("static = ? AND process = ? AND seq = ?", name, l.process, generation).
		Updates(updates)
	if res.Error != nil {
		l.log.Warnf("record dropped %s/%d: %s", name, generation, res.Error)
	} else if res.RowsAffected == 0 {
		l.log.Warnf("record dropped %s/%d: no created row", name, generation)
	}
}

// History returns every recorded generation of the static, newest first.
func (l *Ledger) History(ctx context.Context, static string) ([]Generation, error) {
	var rows []Generation

	err := l.scope(ctx).
		Where("static = ?", static).
		Order("created_at desc").
		Order("seq desc").
		Find(&rows).Error

	return rows, err
}

// Live returns the generations of the static not yet dropped.
func (l *Ledger) Live(ctx context.Context, static string) ([]Generation, error) {
	var rows []Generation

	err := l.scope(ctx).
		Where("static = ? AND dropped_at IS NULL", static).
		Order("seq desc").
		Find(&rows).Error

	return rows, err
}

// Close releases the ledger's database handle.
func (l *Ledger) Close() error {
	return l.handle.Release()
}
