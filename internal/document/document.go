// Package document builds the signed documents an actor commits to the target.
package document

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

type Type string

const (
	TypeAffiliation Type = "affiliation"
	TypeProfile     Type = "profile"
	TypeTimeline    Type = "timeline"
	TypeMessage     Type = "message"
	TypeAssociation Type = "association"
)

// Document is implemented by the five variants below and nothing else.
type Document interface {
	DocumentType() Type
	Author() string
	CreatedAt() time.Time
	document()
}

type Affiliation struct {
	Signer   string    `json:"signer"`
	Type     Type      `json:"type"`
	Domain   string    `json:"domain"`
	SignedAt time.Time `json:"signedAt"`
}

type Profile[T any] struct {
	Signer     string    `json:"signer"`
	Type       Type      `json:"type"`
	Schema     string    `json:"schema"`
	Body       T         `json:"body"`
	SemanticID string    `json:"semanticID,omitempty"`
	SignedAt   time.Time `json:"signedAt"`
}

type Timeline[T any] struct {
	Signer       string    `json:"signer"`
	Type         Type      `json:"type"`
	Schema       string    `json:"schema"`
	Body         T         `json:"body"`
	SemanticID   string    `json:"semanticID,omitempty"`
	Policy       string    `json:"policy,omitempty"`
	PolicyParams string    `json:"policyParams,omitempty"`
	SignedAt     time.Time `json:"signedAt"`
}

type Message[T any] struct {
	Signer    string    `json:"signer"`
	Type      Type      `json:"type"`
	Schema    string    `json:"schema"`
	Body      T         `json:"body"`
	Timelines []string  `json:"timelines"`
	SignedAt  time.Time `json:"signedAt"`
}

type Association[T any] struct {
	Signer    string    `json:"signer"`
	Type      Type      `json:"type"`
	Target    string    `json:"target"`
	Schema    string    `json:"schema"`
	Body      T         `json:"body"`
	Owner     string    `json:"owner"`
	Timelines []string  `json:"timelines"`
	SignedAt  time.Time `json:"signedAt"`
}

func (d *Affiliation) DocumentType() Type    { return TypeAffiliation }
func (d *Profile[T]) DocumentType() Type     { return TypeProfile }
func (d *Timeline[T]) DocumentType() Type    { return TypeTimeline }
func (d *Message[T]) DocumentType() Type     { return TypeMessage }
func (d *Association[T]) DocumentType() Type { return TypeAssociation }

func (d *Affiliation) Author() string    { return d.Signer }
func (d *Profile[T]) Author() string     { return d.Signer }
func (d *Timeline[T]) Author() string    { return d.Signer }
func (d *Message[T]) Author() string     { return d.Signer }
func (d *Association[T]) Author() string { return d.Signer }

func (d *Affiliation) CreatedAt() time.Time    { return d.SignedAt }
func (d *Profile[T]) CreatedAt() time.Time     { return d.SignedAt }
func (d *Timeline[T]) CreatedAt() time.Time    { return d.SignedAt }
func (d *Message[T]) CreatedAt() time.Time     { return d.SignedAt }
func (d *Association[T]) CreatedAt() time.Time { return d.SignedAt }

func (*Affiliation) document()    {}
func (*Profile[T]) document()     {}
func (*Timeline[T]) document()    {}
func (*Message[T]) document()     {}
func (*Association[T]) document() {}

// Serialize returns the canonical text form that gets signed and committed.
func Serialize(doc Document) (string, error) {
	if doc == nil {
		return "", errors.New("nil document")
	}
	if doc.Author() == "" {
		return "", errors.Errorf("%s document has no signer", doc.DocumentType())
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return "", errors.Wrapf(err, "failed to serialize %s document", doc.DocumentType())
	}
	return string(b), nil
}

// Parse reads a canonical document back into its variant. Bodies decode as generic JSON values.
func Parse(text string) (Document, error) {
	var head struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal([]byte(text), &head); err != nil {
		return nil, errors.Wrap(err, "invalid document")
	}

	var doc Document
	switch head.Type {
	case TypeAffiliation:
		doc = &Affiliation{}
	case TypeProfile:
		doc = &Profile[map[string]any]{}
	case TypeTimeline:
		doc = &Timeline[map[string]any]{}
	case TypeMessage:
		doc = &Message[map[string]any]{}
	case TypeAssociation:
		doc = &Association[map[string]any]{}
	default:
		return nil, errors.Errorf("unknown document type %q", head.Type)
	}

	if err := json.Unmarshal([]byte(text), doc); err != nil {
		return nil, errors.Wrapf(err, "invalid %s document", head.Type)
	}
	return doc, nil
}
