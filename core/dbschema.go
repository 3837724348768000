package core

import (
	"time"

	"github.com/lib/pq"
)

// Namespace is the unit of ownership and administration for a set of
// objects. Grants and objects reference it; deleting it cascades to both.
type Namespace struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string    `json:"name" gorm:"type:text;uniqueIndex;not null"`
	Description string    `json:"description" gorm:"type:text"`
	CDate       time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate       time.Time `json:"mdate" gorm:"autoUpdateTime"`
}

// Grant associates one subject with one (namespace, scope) pair. At most
// one row exists per triple; a later put replaces the row in full.
type Grant struct {
	ID          uint        `json:"-" gorm:"primaryKey;autoIncrement"`
	NamespaceID uint        `json:"namespace" gorm:"uniqueIndex:uniq_grant;not null"`
	Scope       Scope       `json:"scope" gorm:"type:text;uniqueIndex:uniq_grant;not null"`
	SubjectKind SubjectKind `json:"subjectKind" gorm:"type:text;uniqueIndex:uniq_grant;not null"`
	SubjectID   string      `json:"subjectId" gorm:"type:text;uniqueIndex:uniq_grant;not null"`
	HasCreate   bool        `json:"has_create" gorm:"not null;default:false"`
	HasRead     bool        `json:"has_read" gorm:"not null;default:false"`
	HasUpdate   bool        `json:"has_update" gorm:"not null;default:false"`
	HasDelete   bool        `json:"has_delete" gorm:"not null;default:false"`
	HasDelegate bool        `json:"has_delegate" gorm:"not null;default:false"`
	CDate       time.Time   `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate       time.Time   `json:"mdate" gorm:"autoUpdateTime"`
}

// Subject returns the grant target.
func (g Grant) Subject() Subject {
	return Subject{Kind: g.SubjectKind, ID: g.SubjectID}
}

// Flags packs the boolean columns into a bitmask.
func (g Grant) Flags() FlagSet {
	var f FlagSet
	if g.HasCreate {
		f |= FlagCreate
	}
	if g.HasRead {
		f |= FlagRead
	}
	if g.HasUpdate {
		f |= FlagUpdate
	}
	if g.HasDelete {
		f |= FlagDelete
	}
	if g.HasDelegate {
		f |= FlagDelegate
	}
	return f
}

// SetFlags overwrites every boolean column from the bitmask. Flags absent
// from f are cleared, which is what gives puts their replace semantics.
func (g *Grant) SetFlags(f FlagSet) {
	g.HasCreate = f&FlagCreate != 0
	g.HasRead = f&FlagRead != 0
	g.HasUpdate = f&FlagUpdate != 0
	g.HasDelete = f&FlagDelete != 0
	g.HasDelegate = f&FlagDelegate != 0
}

// NamespacedObject is a resource managed by the host application. The
// document payload is opaque to this service; only the namespace reference
// and its lifecycle coupling matter here. The reference is set at creation
// and never changes.
type NamespacedObject struct {
	ID          string    `json:"id" gorm:"primaryKey;type:char(20)"`
	NamespaceID uint      `json:"namespace" gorm:"index;not null"`
	Document    string    `json:"document" gorm:"type:json;default:'{}'"`
	CDate       time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate       time.Time `json:"mdate" gorm:"autoUpdateTime"`
}

// GroupRecord mirrors an externally-owned group and its member user IDs.
// The directory ingests these; nothing else writes them.
type GroupRecord struct {
	ID      string         `json:"id" gorm:"primaryKey;type:text"`
	Members pq.StringArray `json:"members" gorm:"type:text[]"`
	CDate   time.Time      `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate   time.Time      `json:"mdate" gorm:"autoUpdateTime"`
}
