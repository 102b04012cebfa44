package server

import (
	"context"
	"time"

	"github.com/wettergames/cityguess/internal/game"
)

// newScoreSink picks the sink finished rounds are submitted to. With a sink
// URL configured, submissions go over HTTP to the external scores service;
// otherwise they land directly in the local store.
func newScoreSink(sinkURL, secret string, store Store, cache *LeaderboardCache) game.ScoreSink {
	if sinkURL != "" {
		return game.NewSinkClient(sinkURL, secret, nil)
	}
	return &localSink{store: store, cache: cache, secret: secret, now: time.Now}
}

// localSink records submissions in the local store, signing them the same
// way the HTTP client would so the ingest path stays uniform.
type localSink struct {
	store  Store
	cache  *LeaderboardCache
	secret string
	now    func() time.Time
}

func (s *localSink) Submit(ctx context.Context, sub game.Submission) error {
	sub.Token = game.SubmissionToken(sub.PlayerID, sub.Score, sub.SecondsRemaining, sub.QuestionsAsked, s.secret)
	return ingestSubmission(ctx, s.store, s.cache, s.now(), sub)
}

// ingestSubmission persists a signed submission: the outcome row always,
// leaderboard entries only for correct guesses. Losses carry a zero score
// and would only pad the rankings.
func ingestSubmission(ctx context.Context, store Store, cache *LeaderboardCache, now time.Time, sub game.Submission) error {
	rec := OutcomeRecord{
		ID:          sub.OutcomeID,
		PlayerID:    sub.PlayerID,
		RoundDay:    now.UTC().Format("2006-01-02"),
		Correct:     sub.Correct,
		Score:       sub.Score,
		Questions:   sub.QuestionsAsked,
		SecondsLeft: sub.SecondsRemaining,
		CompletedAt: now.UTC().Format("2006-01-02T15:04:05.000Z"),
	}

	var partitions []string
	if sub.Correct {
		partitions = game.PartitionKeys(now.UTC())
	}

	entry := game.Entry{PlayerID: sub.PlayerID, DisplayName: sub.DisplayName, Score: sub.Score}
	if err := store.RecordOutcome(ctx, rec, partitions, entry); err != nil {
		return err
	}

	if cache != nil && len(partitions) > 0 {
		cache.Invalidate(ctx, partitions)
	}
	return nil
}
