// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

package lawsync

// PruneOrphans is the post-merge referential-integrity pass. A child is
// valid when its parent id exists in the union of the remote authoritative
// ids and the outgoing upsert ids: the parent either already exists remotely
// or is about to be created by this very sync round. Children failing the
// test are stripped from both the upsert and the merged sets so neither
// local storage nor the remote push carries a dangling reference.
//
// The pass is idempotent and never removes a record whose parent genuinely
// exists. Derived id sets are recomputed level by level
// so a pruned case takes its stages and sessions with it.
func (p *SyncPlan) PruneOrphans(remote *Snapshot) {
	validClients := unionKeys(remote.Clients, p.Upserts.Clients)
	p.Upserts.Cases = keepWithParent(p.Upserts.Cases, validClients, caseParent)
	p.Merged.Cases = keepWithParent(p.Merged.Cases, validClients, caseParent)

	validCases := unionKeys(remote.Cases, p.Upserts.Cases)
	p.Upserts.Stages = keepWithParent(p.Upserts.Stages, validCases, stageParent)
	p.Merged.Stages = keepWithParent(p.Merged.Stages, validCases, stageParent)

	validStages := unionKeys(remote.Stages, p.Upserts.Stages)
	p.Upserts.Sessions = keepWithParent(p.Upserts.Sessions, validStages, sessionParent)
	p.Merged.Sessions = keepWithParent(p.Merged.Sessions, validStages, sessionParent)

	p.Upserts.Documents = keepWithParent(p.Upserts.Documents, validCases, documentParent)
	p.Merged.Documents = keepWithParent(p.Merged.Documents, validCases, documentParent)
}

func caseParent(c Case) string { return c.ClientID }
func stageParent(s Stage) string { return s.CaseID }
func sessionParent(s Session) string { return s.StageID }
func documentParent(d CaseDocument) string { return d.CaseID }

func unionKeys[R Record](a, b []R) map[string]struct{} {
	out := keySet(a)
	for i := range b {
		out[b[i].Key()] = struct{}{}
	}
	return out
}
