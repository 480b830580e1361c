// Package domain holds the public viewing link record in its Solo and Group variants.
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/00aj99/Hauk/internal/expiry"
)

// Type discriminates the share variants. The numeric values are persisted.
type Type int

const (
	TypeSolo  Type = 0
	TypeGroup Type = 1
)

func (t Type) String() string {
	switch t {
	case TypeSolo:
		return "solo"
	case TypeGroup:
		return "group"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// ErrIndefinite is returned when saving a share with no expiry.
var ErrIndefinite = fmt.Errorf("%w: share cannot be indefinite", expiry.ErrInvariant)

// ErrUnknownType is returned when decoding a record whose type is neither solo nor group.
var ErrUnknownType = errors.New("share: unknown type")

// Solo is the single-broadcaster variant.
type Solo struct {
	// Host is the session ID feeding the share, empty until assigned.
	Host string
	// Adoptable allows a group to absorb this share's broadcaster.
	Adoptable bool
}

// Group is the multi-broadcaster variant joined through a PIN.
type Group struct {
	// Hosts maps nickname to session ID.
	Hosts map[string]string
	PIN   string
}

// Share is a viewing link. Exactly one of Solo and Group is set, matching Type.
// For a group, Expire is derived from its live members by the sharing service.
type Share struct {
	ID     string
	Type   Type
	Expire int64
	Solo   *Solo
	Group  *Group
}

// NewSolo returns an unsaved solo share.
func NewSolo(id string) *Share {
	return &Share{ID: id, Type: TypeSolo, Solo: &Solo{}}
}

// NewGroup returns an unsaved group share with no members.
func NewGroup(id, pin string) *Share {
	return &Share{ID: id, Type: TypeGroup, Group: &Group{Hosts: map[string]string{}, PIN: pin}}
}

// IsGroup reports whether sh is the group variant.
func (sh *Share) IsGroup() bool { return sh.Type == TypeGroup }

// HasExpired reports whether the share's expiry is at or before now.
func (sh *Share) HasExpired(now time.Time) bool {
	return expiry.HasExpired(sh.Expire, now)
}

// Validate checks that the share may be persisted.
func (sh *Share) Validate() error {
	if sh.Expire == 0 {
		return ErrIndefinite
	}
	switch sh.Type {
	case TypeSolo:
		if sh.Solo == nil {
			return fmt.Errorf("%w: solo share without solo fields", expiry.ErrInvariant)
		}
	case TypeGroup:
		if sh.Group == nil || sh.Group.PIN == "" {
			return fmt.Errorf("%w: group share without pin", expiry.ErrInvariant)
		}
	default:
		return fmt.Errorf("%w: %v", ErrUnknownType, sh.Type)
	}
	return nil
}

// SetHost assigns the broadcasting session of a solo share.
func (sh *Share) SetHost(sessionID string) {
	if sh.Solo != nil {
		sh.Solo.Host = sessionID
	}
}

// Host returns the broadcasting session of a solo share, or "" for groups.
func (sh *Share) Host() string {
	if sh.Solo == nil {
		return ""
	}
	return sh.Solo.Host
}

// SetAdoptable sets whether a group may absorb this solo share's broadcaster.
func (sh *Share) SetAdoptable(v bool) {
	if sh.Solo != nil {
		sh.Solo.Adoptable = v
	}
}

// IsAdoptable is always false for groups.
func (sh *Share) IsAdoptable() bool {
	return sh.Solo != nil && sh.Solo.Adoptable
}

// PIN returns the group PIN, or "" for solo shares.
func (sh *Share) PIN() string {
	if sh.Group == nil {
		return ""
	}
	return sh.Group.PIN
}

// AddHost maps nickname to sessionID in a group. An existing nickname is overwritten.
func (sh *Share) AddHost(nickname, sessionID string) {
	if sh.Group == nil {
		return
	}
	if sh.Group.Hosts == nil {
		sh.Group.Hosts = map[string]string{}
	}
	sh.Group.Hosts[nickname] = sessionID
}

// RemoveHost drops every nickname that maps to sessionID.
func (sh *Share) RemoveHost(sessionID string) {
	if sh.Group == nil {
		return
	}
	maps.DeleteFunc(sh.Group.Hosts, func(_, id string) bool { return id == sessionID })
}

// Nicknames returns the group's nicknames in sorted order.
func (sh *Share) Nicknames() []string {
	if sh.Group == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(sh.Group.Hosts))
}

// HostIDs returns the distinct session IDs feeding the share, in nickname order for groups.
func (sh *Share) HostIDs() []string {
	if sh.Solo != nil {
		if sh.Solo.Host == "" {
			return nil
		}
		return []string{sh.Solo.Host}
	}
	var ids []string
	for _, nick := range sh.Nicknames() {
		if id := sh.Group.Hosts[nick]; !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

type soloRecord struct {
	Type      Type    `json:"type"`
	Expire    int64   `json:"expire"`
	Host      *string `json:"host"`
	Adoptable bool    `json:"adoptable"`
}

type groupRecord struct {
	Type     Type              `json:"type"`
	Expire   int64             `json:"expire"`
	Hosts    map[string]string `json:"hosts"`
	GroupPIN string            `json:"groupPin"`
}

// MarshalJSON writes the flat record shape of the variant.
func (sh *Share) MarshalJSON() ([]byte, error) {
	switch sh.Type {
	case TypeSolo:
		rec := soloRecord{Type: TypeSolo, Expire: sh.Expire}
		if sh.Solo != nil {
			rec.Adoptable = sh.Solo.Adoptable
			if sh.Solo.Host != "" {
				host := sh.Solo.Host
				rec.Host = &host
			}
		}
		return json.Marshal(rec)
	case TypeGroup:
		rec := groupRecord{Type: TypeGroup, Expire: sh.Expire, Hosts: map[string]string{}}
		if sh.Group != nil {
			rec.GroupPIN = sh.Group.PIN
			maps.Copy(rec.Hosts, sh.Group.Hosts)
		}
		return json.Marshal(rec)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownType, sh.Type)
	}
}

// UnmarshalJSON dispatches on the stored type. ID is left untouched.
func (sh *Share) UnmarshalJSON(b []byte) error {
	var head struct {
		Type *Type `json:"type"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	if head.Type == nil {
		return fmt.Errorf("%w: missing", ErrUnknownType)
	}
	switch *head.Type {
	case TypeSolo:
		var rec soloRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			return err
		}
		solo := &Solo{Adoptable: rec.Adoptable}
		if rec.Host != nil {
			solo.Host = *rec.Host
		}
		sh.Type, sh.Expire, sh.Solo, sh.Group = TypeSolo, rec.Expire, solo, nil
	case TypeGroup:
		var rec groupRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			return err
		}
		if rec.Hosts == nil {
			rec.Hosts = map[string]string{}
		}
		sh.Type, sh.Expire, sh.Solo = TypeGroup, rec.Expire, nil
		sh.Group = &Group{Hosts: rec.Hosts, PIN: rec.GroupPIN}
	default:
		return fmt.Errorf("%w: %v", ErrUnknownType, *head.Type)
	}
	return nil
}
