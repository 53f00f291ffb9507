// Package commit signs documents and submits them to the commit endpoint.
package commit

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/totegamma/concrnt-loadtest"
	"github.com/totegamma/concrnt-loadtest/client"
	"github.com/totegamma/concrnt-loadtest/internal/document"
)

// Committer is the transport a Poster submits envelopes through.
type Committer interface {
	Commit(ctx context.Context, commit concrnt.Commit) (*client.Response, error)
}

// SignFunc signs msg with a hex encoded private key and returns the encoded signature.
type SignFunc func(privkey string, msg string) (string, error)

// Poster is the single path for state changing requests. It never retries.
type Poster struct {
	committer Committer
	sign      SignFunc
}

func NewPoster(committer Committer, sign SignFunc) *Poster {
	if sign == nil {
		sign = concrnt.Sign
	}
	return &Poster{committer: committer, sign: sign}
}

// Envelope serializes and signs doc. A nil option is left out of the envelope.
func (p *Poster) Envelope(identity concrnt.Identity, doc document.Document, option any) (concrnt.Commit, error) {
	if doc.Author() != identity.Address {
		return concrnt.Commit{}, errors.Errorf("document signer %s does not match identity %s", doc.Author(), identity.Address)
	}

	serialized, err := document.Serialize(doc)
	if err != nil {
		return concrnt.Commit{}, err
	}

	signature, err := p.sign(identity.PrivKey, serialized)
	if err != nil {
		return concrnt.Commit{}, errors.Wrapf(err, "failed to sign %s document", doc.DocumentType())
	}

	commit := concrnt.Commit{
		Document:  serialized,
		Signature: signature,
	}

	if option != nil {
		opt, err := json.Marshal(option)
		if err != nil {
			return concrnt.Commit{}, errors.Wrap(err, "failed to encode option")
		}
		commit.Option = string(opt)
	}

	return commit, nil
}

// Post submits doc and returns the raw response. Callers check the status themselves.
func (p *Poster) Post(ctx context.Context, identity concrnt.Identity, doc document.Document, option any) (*client.Response, error) {
	commit, err := p.Envelope(identity, doc, option)
	if err != nil {
		return nil, err
	}
	return p.committer.Commit(ctx, commit)
}
