package document

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/totegamma/concrnt-loadtest"
	"github.com/totegamma/concrnt-loadtest/schemas"
)

// Builder constructs documents signed by a single actor.
type Builder struct {
	signer string
	now    func() time.Time
}

func NewBuilder(signer string, now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{signer: signer, now: now}
}

func (b *Builder) signedAt() time.Time {
	return Timestamp(b.now())
}

// Timestamp rounds t up to whole milliseconds in UTC. The canonical form then round-trips
// exactly and the result is never earlier than t.
func Timestamp(t time.Time) time.Time {
	ms := t.UTC().Truncate(time.Millisecond)
	if ms.Before(t) {
		ms = ms.Add(time.Millisecond)
	}
	return ms
}

func (b *Builder) Affiliation(domain string) *Affiliation {
	return &Affiliation{
		Signer:   b.signer,
		Type:     TypeAffiliation,
		Domain:   domain,
		SignedAt: b.signedAt(),
	}
}

// Profile builds the actor's primary profile. Re-posting it replaces the previous one.
func (b *Builder) Profile(username string) *Profile[schemas.Profile] {
	return &Profile[schemas.Profile]{
		Signer:     b.signer,
		Type:       TypeProfile,
		Schema:     schemas.ProfileURL,
		Body:       schemas.Profile{Username: username},
		SemanticID: schemas.ProfileSemanticID,
		SignedAt:   b.signedAt(),
	}
}

// Timeline builds a timeline with no access policy.
func (b *Builder) Timeline(semanticID string) *Timeline[schemas.Empty] {
	return &Timeline[schemas.Empty]{
		Signer:     b.signer,
		Type:       TypeTimeline,
		Schema:     schemas.TimelineURL,
		Body:       schemas.Empty{},
		SemanticID: semanticID,
		SignedAt:   b.signedAt(),
	}
}

// PrivateTimeline builds a publicly readable timeline whose only writer is the signer.
func (b *Builder) PrivateTimeline(semanticID string) (*Timeline[schemas.Empty], error) {
	params, err := json.Marshal(schemas.InlineReadWriteParams{
		IsWritePublic: false,
		IsReadPublic:  true,
		Writer:        []string{b.signer},
		Reader:        []string{},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode policy params")
	}

	tl := b.Timeline(semanticID)
	tl.Policy = schemas.InlineReadWrite
	tl.PolicyParams = string(params)
	return tl, nil
}

// HomeTimeline is the actor's private home timeline.
func (b *Builder) HomeTimeline() (*Timeline[schemas.Empty], error) {
	return b.PrivateTimeline(schemas.HomeTimelineSemanticID)
}

func (b *Builder) Message(body string, timelines ...string) *Message[schemas.Markdown] {
	if timelines == nil {
		timelines = []string{}
	}
	return &Message[schemas.Markdown]{
		Signer:    b.signer,
		Type:      TypeMessage,
		Schema:    schemas.MarkdownURL,
		Body:      schemas.Markdown{Body: body},
		Timelines: timelines,
		SignedAt:  b.signedAt(),
	}
}

// Like builds a like association attached to the resource owned by owner.
func (b *Builder) Like(target, owner string) *Association[schemas.Empty] {
	return &Association[schemas.Empty]{
		Signer:    b.signer,
		Type:      TypeAssociation,
		Target:    target,
		Schema:    schemas.LikeURL,
		Body:      schemas.Empty{},
		Owner:     owner,
		Timelines: []string{},
		SignedAt:  b.signedAt(),
	}
}

// HomeTimelineID is the reference other documents use to target address's home timeline.
func HomeTimelineID(address string) string {
	return concrnt.ComposeTimelineID(schemas.HomeTimelineSemanticID, address)
}
