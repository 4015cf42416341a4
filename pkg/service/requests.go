package service

import (
	"errors"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/mattsolo1/grove-bookmarks/pkg/bookmark"
	"github.com/mattsolo1/grove-bookmarks/pkg/pathref"
)

// MaxNameLength bounds group keys and new file or folder names.
const MaxNameLength = 255

var plainName = regexp.MustCompile(`^[^/\\]+$`)

var (
	keyRules = []validation.Rule{
		validation.By(nonBlank),
		validation.Length(0, MaxNameLength),
	}
	nameRules = []validation.Rule{
		validation.Required,
		validation.Length(1, MaxNameLength),
		validation.Match(plainName).Error("name cannot contain path separators"),
		validation.NotIn(".", "..").Error("name cannot be . or .."),
	}
	refRules = []validation.Rule{
		validation.By(setRef),
	}
)

func nonBlank(value interface{}) error {
	s, _ := value.(string)
	if bookmark.RegulateKey(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

func setRef(value interface{}) error {
	ref, _ := value.(pathref.Ref)
	if ref.IsZero() {
		return errors.New("reference is required")
	}
	return nil
}

// invalid wraps an ozzo error so errors.Is(err, ErrValidation) holds.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

// NewGroupRequest creates an empty bookmark group.
type NewGroupRequest struct {
	Scope bookmark.Scope
	Key   string
}

func (r *NewGroupRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Scope, validation.Required, validation.In(bookmark.Global, bookmark.Workspace)),
		validation.Field(&r.Key, keyRules...),
	)
}

// RenameGroupRequest renames the group addressed by URI.
type RenameGroupRequest struct {
	URI    string
	NewKey string
}

func (r *RenameGroupRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.URI, validation.Required),
		validation.Field(&r.NewKey, keyRules...),
	)
}

// RemoveGroupRequest deletes the group addressed by URI.
type RemoveGroupRequest struct {
	URI string
}

func (r *RemoveGroupRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.URI, validation.Required),
	)
}

// AddEntriesRequest adds references to the group addressed by Target.
type AddEntriesRequest struct {
	Target string
	Refs   []pathref.Ref
}

func (r *AddEntriesRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Target, validation.Required),
		validation.Field(&r.Refs, validation.Required, validation.Each(refRules...)),
	)
}

// RemoveEntryRequest removes one reference from the group addressed by Group.
type RemoveEntryRequest struct {
	Group string
	Ref   pathref.Ref
}

func (r *RemoveEntryRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Group, validation.Required),
		validation.Field(&r.Ref, refRules...),
	)
}

// CreateRequest creates Name inside Parent, or inside Parent's folder when Parent is a file.
type CreateRequest struct {
	Parent pathref.Ref
	Name   string
}

func (r *CreateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Parent, refRules...),
		validation.Field(&r.Name, nameRules...),
	)
}

// RenameRequest renames Ref within its folder.
type RenameRequest struct {
	Ref     pathref.Ref
	NewName string
}

func (r *RenameRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Ref, refRules...),
		validation.Field(&r.NewName, nameRules...),
	)
}

// RemoveRequest deletes Ref from disk. Confirmed must be set.
type RemoveRequest struct {
	Ref       pathref.Ref
	Confirmed bool
}

func (r *RemoveRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Ref, refRules...),
	)
}

// DropRequest adds a text/uri-list payload to the group or list addressed by Target.
type DropRequest struct {
	Target  string
	URIList string
}

func (r *DropRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Target, validation.Required),
	)
}
