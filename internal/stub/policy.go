package stub

import (
	"github.com/pkg/errors"

	"github.com/totegamma/concrnt-loadtest"
	"github.com/totegamma/concrnt-loadtest/internal/document"
	"github.com/totegamma/concrnt-loadtest/policy"
)

func (h *Handler) registerTimeline(doc *document.Timeline[map[string]any]) error {
	if doc.SemanticID == "" {
		return nil
	}
	params, err := policy.ParseParams(doc.PolicyParams)
	if err != nil {
		return err
	}
	h.store.PutTimeline(Timeline{
		ID:     concrnt.ComposeTimelineID(doc.SemanticID, doc.Signer),
		Owner:  doc.Signer,
		Policy: doc.Policy,
		Params: params,
	})
	return nil
}

// authorizeDistribute checks every registered target timeline's policy. Unknown timelines and
// timelines without a recognised policy accept anyone, like the seeded well-known timeline.
func (h *Handler) authorizeDistribute(requester string, timelines []string) error {
	for _, id := range timelines {
		tl, ok := h.store.GetTimeline(id)
		if !ok || tl.Policy == "" {
			continue
		}
		doc, ok := policy.Lookup(tl.Policy)
		if !ok {
			continue
		}
		allowed, err := policy.Allowed(doc, policy.RequestContext{Requester: requester, Params: tl.Params}, policy.ActionDistribute)
		if err != nil {
			return errors.Wrapf(err, "timeline %s", id)
		}
		if !allowed {
			return errors.Errorf("%s may not post to %s", requester, id)
		}
	}
	return nil
}
