// Package enrich updates one library item's ratings from the provider.
//
// An Updater combines the response cache, the quota tracker, the provider
// client and the rating resolver. A fresh cache entry is used without any
// network access. During a cooldown a stale entry is used instead. Otherwise
// the provider is called and the tracker learns from the response. The
// resolved scores are then compared with the stored ones, and the item is
// saved only when something changed.
//
// Update never retries. Every failure collapses into an Outcome, except
// context cancellation, which is returned as an error so the caller can stop
// a batch.
package enrich
