package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"
)

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("record", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB, zap.NewNop().Sugar())
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		if err := s.Record(ctx, Result{GameID: "g", Round: 1, Outcome: OutcomeXWon}); err != nil {
			mt.Fatalf("record: %v", err)
		}
		if err := s.Record(ctx, Result{Outcome: "draw"}); !errors.Is(err, ErrUnknownOutcome) {
			mt.Fatalf("expected ErrUnknownOutcome, got %v", err)
		}
	})

	mt.Run("record write error", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB, zap.NewNop().Sugar())
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))
		if err := s.Record(ctx, Result{GameID: "g", Outcome: OutcomeTie}); err == nil {
			mt.Fatalf("expected the write error to surface")
		}
	})

	mt.Run("tally", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB, zap.NewNop().Sugar())
		ns := mt.DB.Name() + "." + resultsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: OutcomeXWon}, {Key: "count", Value: int64(3)}},
			bson.D{{Key: "_id", Value: OutcomeTie}, {Key: "count", Value: int64(1)}},
		))
		tally, err := s.Tally(ctx)
		if err != nil {
			mt.Fatalf("tally: %v", err)
		}
		if len(tally) != 2 || tally[OutcomeXWon] != 3 || tally[OutcomeTie] != 1 {
			mt.Fatalf("unexpected tally %v", tally)
		}
	})

	mt.Run("recent", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB, zap.NewNop().Sugar())
		ns := mt.DB.Name() + "." + resultsCollection
		finished := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "game_id", Value: "g"}, {Key: "round", Value: 2}, {Key: "outcome", Value: OutcomeOWon}, {Key: "finished", Value: finished}},
			bson.D{{Key: "game_id", Value: "g"}, {Key: "round", Value: 1}, {Key: "outcome", Value: OutcomeTie}, {Key: "finished", Value: finished.Add(-time.Minute)}},
		))
		recent, err := s.Recent(ctx, 2)
		if err != nil {
			mt.Fatalf("recent: %v", err)
		}
		if len(recent) != 2 || recent[0].Round != 2 || recent[0].Outcome != OutcomeOWon || !recent[0].Finished.Equal(finished) {
			mt.Fatalf("unexpected results %+v", recent)
		}
	})
}
