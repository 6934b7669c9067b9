package proposals

import (
	"context"
	"fmt"
)

// StaticQuorum applies the same quorum percentage to every group.
type StaticQuorum float64

func (q StaticQuorum) QuorumPercent(context.Context, string) (float64, error) {
	return float64(q), nil
}

// GroupQuorum uses a group's own quorum setting when it has one and falls
// back to Default otherwise.
type GroupQuorum struct {
	Groups  GroupReader
	Default float64
}

func (q GroupQuorum) QuorumPercent(ctx context.Context, groupID string) (float64, error) {
	g, err := q.Groups.GetGroup(ctx, groupID)
	if err != nil {
		return 0, fmt.Errorf("load group %s: %w", groupID, err)
	}
	if g.QuorumPercent != nil {
		return *g.QuorumPercent, nil
	}
	return q.Default, nil
}
