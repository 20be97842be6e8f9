package scorecard_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/verte-zerg/scorecard/internal/events"
	"github.com/verte-zerg/scorecard/internal/model"
	"github.com/verte-zerg/scorecard/internal/scorecard"
	"github.com/verte-zerg/scorecard/internal/store"
)

type fixture struct {
	backend *store.Memory
	service *store.Service
	bus     *events.Bus
	ctrl    *scorecard.Controller
	ids     int
}

func newFixture() *fixture {
	f := &fixture{backend: store.NewMemory()}
	f.service = store.NewService(f.backend)
	f.bus = events.NewBus(nil)
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	ids := func(time.Time) string {
		f.ids++
		return "session_" + string(rune('a'+f.ids-1))
	}
	f.ctrl = scorecard.New(f.service, f.bus, scorecard.WithClock(clock), scorecard.WithIDGenerator(ids))
	return f
}

func practice() scorecard.Selection {
	return scorecard.Selection{RoundID: "practice-30m", BowID: "recurve"}
}

func record(ctrl *scorecard.Controller, scores ...model.ArrowScore) {
	for _, s := range scores {
		_, err := ctrl.RecordArrow(s)
		convey.So(err, convey.ShouldBeNil)
	}
}

func TestScoringSession(t *testing.T) {
	convey.Convey("Given a practice-30m session", t, func() {
		ctx := context.Background()
		f := newFixture()
		convey.So(f.ctrl.Init(ctx), convey.ShouldBeNil)
		session, err := f.ctrl.Start(ctx, practice())
		convey.So(err, convey.ShouldBeNil)
		convey.So(session.RoundType.ArrowsPerEnd, convey.ShouldEqual, 3)
		convey.So(session.RoundType.TotalEnds, convey.ShouldEqual, 10)
		convey.So(session.RoundType.MaxScore, convey.ShouldEqual, 300)
		convey.So(session.Metadata.BowType.ID, convey.ShouldEqual, "recurve")
		convey.So(f.ctrl.State(), convey.ShouldEqual, scorecard.StateEndInProgress)

		convey.Convey("When 10, X, 9 are recorded", func() {
			record(f.ctrl, "10", model.InnerTen, "9")

			convey.Convey("Then the live end total is 29 and the end is full", func() {
				convey.So(f.ctrl.LiveEndTotal(), convey.ShouldEqual, 29)
				convey.So(f.ctrl.State(), convey.ShouldEqual, scorecard.StateEndFull)
				convey.So(f.ctrl.Buffer()[1].IsInnerTen, convey.ShouldBeTrue)
			})

			convey.Convey("Then a fourth arrow is rejected without changing the end", func() {
				_, err := f.ctrl.RecordArrow("8")
				convey.So(errors.Is(err, scorecard.ErrEndFull), convey.ShouldBeTrue)
				convey.So(f.ctrl.LiveEndTotal(), convey.ShouldEqual, 29)
				convey.So(f.ctrl.LastError(), convey.ShouldEqual, err)
			})

			convey.Convey("And the end is completed", func() {
				end, err := f.ctrl.CompleteEnd(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(end.Number, convey.ShouldEqual, 1)
				convey.So(end.Total, convey.ShouldEqual, 29)

				convey.Convey("Then the running total is 29 and the next end is 2", func() {
					convey.So(f.ctrl.RunningTotal(), convey.ShouldEqual, 29)
					convey.So(f.ctrl.EndNumber(), convey.ShouldEqual, 2)
					convey.So(f.ctrl.Buffer(), convey.ShouldBeEmpty)
					convey.So(f.service.Exists(ctx, store.KeyCurrentSession), convey.ShouldBeTrue)
				})

				convey.Convey("Then three misses add nothing", func() {
					record(f.ctrl, model.Miss, model.Miss, model.Miss)
					convey.So(f.ctrl.LiveEndTotal(), convey.ShouldEqual, 0)
					_, err := f.ctrl.CompleteEnd(ctx)
					convey.So(err, convey.ShouldBeNil)
					convey.So(f.ctrl.RunningTotal(), convey.ShouldEqual, 29)
					convey.So(f.ctrl.EndNumber(), convey.ShouldEqual, 3)
				})
			})
		})

		convey.Convey("When completing an empty end", func() {
			end, err := f.ctrl.CompleteEnd(ctx)

			convey.Convey("Then nothing happens", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(end, convey.ShouldBeNil)
				current, _ := f.ctrl.Current()
				convey.So(current.Ends, convey.ShouldBeEmpty)
				convey.So(f.ctrl.EndNumber(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When completing a partial end", func() {
			record(f.ctrl, "7")
			_, err := f.ctrl.CompleteEnd(ctx)

			convey.Convey("Then it is rejected and the arrow stays", func() {
				convey.So(errors.Is(err, scorecard.ErrEndIncomplete), convey.ShouldBeTrue)
				convey.So(scorecard.IsValidation(err), convey.ShouldBeTrue)
				convey.So(f.ctrl.Buffer(), convey.ShouldHaveLength, 1)
			})
		})

		convey.Convey("When undoing and clearing", func() {
			record(f.ctrl, "7", "8")
			convey.So(f.ctrl.UndoArrow(), convey.ShouldBeTrue)
			convey.So(f.ctrl.LiveEndTotal(), convey.ShouldEqual, 7)
			f.ctrl.ClearEnd()

			convey.Convey("Then the buffer is empty and undo is a no-op", func() {
				convey.So(f.ctrl.Buffer(), convey.ShouldBeEmpty)
				convey.So(f.ctrl.UndoArrow(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When free text is committed", func() {
			arrow, err := f.ctrl.RecordArrowText(" x ")
			convey.So(err, convey.ShouldBeNil)
			convey.So(arrow.Value, convey.ShouldEqual, model.InnerTen)

			_, err = f.ctrl.RecordArrowText("11")
			convey.Convey("Then invalid text is rejected", func() {
				var ve *scorecard.ValidationError
				convey.So(errors.As(err, &ve), convey.ShouldBeTrue)
				convey.So(ve.Code, convey.ShouldEqual, scorecard.CodeInvalidScore)
				convey.So(f.ctrl.Buffer(), convey.ShouldHaveLength, 1)
			})
		})

		convey.Convey("When a second session is started", func() {
			_, err := f.ctrl.Start(ctx, practice())
			convey.Convey("Then it is rejected", func() {
				convey.So(errors.Is(err, scorecard.ErrSessionActive), convey.ShouldBeTrue)
			})
		})
	})
}

func TestSessionCompletion(t *testing.T) {
	convey.Convey("Given a two-end configurable session", t, func() {
		ctx := context.Background()
		f := newFixture()
		var ended, saved int
		f.bus.Subscribe(events.SessionEnded, func(any) { ended++ })
		f.bus.Subscribe(events.SessionSaved, func(any) { saved++ })

		sel := practice()
		sel.ArrowsPerEnd = 2
		sel.TotalEnds = 2
		session, err := f.ctrl.Start(ctx, sel)
		convey.So(err, convey.ShouldBeNil)
		convey.So(session.RoundType.MaxScore, convey.ShouldEqual, 40)

		convey.Convey("When both ends are shot", func() {
			record(f.ctrl, "10", "9")
			_, err := f.ctrl.CompleteEnd(ctx)
			convey.So(err, convey.ShouldBeNil)
			record(f.ctrl, "8", model.Miss)
			_, err = f.ctrl.CompleteEnd(ctx)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the session lands in history", func() {
				_, active := f.ctrl.Current()
				convey.So(active, convey.ShouldBeFalse)
				convey.So(f.ctrl.State(), convey.ShouldEqual, scorecard.StateNoSession)

				history := f.ctrl.History()
				convey.So(history, convey.ShouldHaveLength, 1)
				convey.So(history[0].IsComplete, convey.ShouldBeTrue)
				convey.So(history[0].EndTime, convey.ShouldNotBeNil)
				convey.So(history[0].EndTime.Before(history[0].StartTime), convey.ShouldBeFalse)
				convey.So(history[0].Total(), convey.ShouldEqual, 27)
				convey.So(ended, convey.ShouldEqual, 1)
				convey.So(saved, convey.ShouldEqual, 1)
			})

			convey.Convey("Then storage holds the history and no current session", func() {
				var stored []model.Session
				found, err := f.service.Load(ctx, store.KeySessions, &stored)
				convey.So(err, convey.ShouldBeNil)
				convey.So(found, convey.ShouldBeTrue)
				convey.So(stored, convey.ShouldHaveLength, 1)
				convey.So(f.service.Exists(ctx, store.KeyCurrentSession), convey.ShouldBeFalse)
			})

			convey.Convey("Then recording needs a new session", func() {
				_, err := f.ctrl.RecordArrow("5")
				convey.So(errors.Is(err, scorecard.ErrNoSession), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given several completed sessions", t, func() {
		ctx := context.Background()
		f := newFixture()
		sel := practice()
		sel.ArrowsPerEnd = 1
		sel.TotalEnds = 1
		for _, s := range []model.ArrowScore{"5", "6", "7"} {
			_, err := f.ctrl.Start(ctx, sel)
			convey.So(err, convey.ShouldBeNil)
			record(f.ctrl, s)
			_, err = f.ctrl.CompleteEnd(ctx)
			convey.So(err, convey.ShouldBeNil)
		}

		convey.Convey("Then history is newest first", func() {
			history := f.ctrl.History()
			convey.So(history, convey.ShouldHaveLength, 3)
			convey.So(history[0].Total(), convey.ShouldEqual, 7)
			convey.So(history[2].Total(), convey.ShouldEqual, 5)
			convey.So(f.ctrl.Sessions()[0].Total(), convey.ShouldEqual, 5)
		})
	})
}

func TestStartValidation(t *testing.T) {
	convey.Convey("Given a fresh controller", t, func() {
		ctx := context.Background()
		f := newFixture()
		var reported []error
		f.bus.Subscribe(events.ErrorOccurred, func(p any) { reported = append(reported, p.(error)) })

		convey.Convey("When the round is missing", func() {
			_, err := f.ctrl.Start(ctx, scorecard.Selection{BowID: "recurve"})
			convey.Convey("Then a required error names the field", func() {
				var ve *scorecard.ValidationError
				convey.So(errors.As(err, &ve), convey.ShouldBeTrue)
				convey.So(ve.Field, convey.ShouldEqual, "roundType")
				convey.So(ve.Code, convey.ShouldEqual, scorecard.CodeRequired)
				convey.So(reported, convey.ShouldHaveLength, 1)
				_, active := f.ctrl.Current()
				convey.So(active, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the bow is missing", func() {
			_, err := f.ctrl.Start(ctx, scorecard.Selection{RoundID: "practice-30m"})
			convey.So(errors.Is(err, scorecard.ErrMissing), convey.ShouldBeTrue)
		})

		convey.Convey("When the round is unknown", func() {
			_, err := f.ctrl.Start(ctx, scorecard.Selection{RoundID: "90m", BowID: "recurve"})
			convey.So(errors.Is(err, scorecard.ErrUnknown), convey.ShouldBeTrue)
		})

		convey.Convey("When an override is out of range", func() {
			sel := practice()
			sel.ArrowsPerEnd = 40
			_, err := f.ctrl.Start(ctx, sel)
			var ve *scorecard.ValidationError
			convey.So(errors.As(err, &ve), convey.ShouldBeTrue)
			convey.So(ve.Code, convey.ShouldEqual, scorecard.CodeOutOfRange)
		})

		convey.Convey("When a fixed round gets overrides", func() {
			session, err := f.ctrl.Start(ctx, scorecard.Selection{RoundID: "70m-122cm", BowID: "recurve", ArrowsPerEnd: 3, TotalEnds: 2})
			convey.Convey("Then they are ignored", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(session.RoundType.ArrowsPerEnd, convey.ShouldEqual, 6)
				convey.So(session.RoundType.TotalEnds, convey.ShouldEqual, 12)
			})
		})

		convey.Convey("When a selection is configured first", func() {
			rt, err := f.ctrl.Configure(scorecard.Selection{RoundID: "custom-practice", BowID: "barebow", TotalEnds: 5})
			convey.So(err, convey.ShouldBeNil)
			convey.So(rt.MaxScore, convey.ShouldEqual, 150)
			convey.So(f.ctrl.State(), convey.ShouldEqual, scorecard.StateConfiguring)
		})

		convey.Convey("When recording without a session", func() {
			_, err := f.ctrl.RecordArrow("9")
			convey.So(errors.Is(err, scorecard.ErrNoSession), convey.ShouldBeTrue)
			_, err = f.ctrl.CompleteEnd(ctx)
			convey.So(errors.Is(err, scorecard.ErrNoSession), convey.ShouldBeTrue)
		})
	})
}

func TestStorageUnavailable(t *testing.T) {
	convey.Convey("Given a store that is unavailable", t, func() {
		ctx := context.Background()
		f := newFixture()
		f.backend.SetAvailable(false)

		convey.Convey("Then init reports the failure", func() {
			err := f.ctrl.Init(ctx)
			convey.So(errors.Is(err, store.ErrUnavailable), convey.ShouldBeTrue)
		})

		convey.Convey("When a full session is shot anyway", func() {
			sel := practice()
			sel.ArrowsPerEnd = 1
			sel.TotalEnds = 2
			_, err := f.ctrl.Start(ctx, sel)
			convey.So(err, convey.ShouldBeNil)
			record(f.ctrl, "9")
			end, err := f.ctrl.CompleteEnd(ctx)

			convey.Convey("Then the end still counts and the failure is surfaced", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(end.Total, convey.ShouldEqual, 9)
				convey.So(errors.Is(f.ctrl.LastError(), store.ErrUnavailable), convey.ShouldBeTrue)
				convey.So(f.ctrl.RunningTotal(), convey.ShouldEqual, 9)
			})

			convey.Convey("Then the session completes in memory", func() {
				record(f.ctrl, "8")
				_, err := f.ctrl.CompleteEnd(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(f.ctrl.History(), convey.ShouldHaveLength, 1)
			})
		})
	})
}

func TestResume(t *testing.T) {
	convey.Convey("Given a session interrupted after one end", t, func() {
		ctx := context.Background()
		f := newFixture()
		_, err := f.ctrl.Start(ctx, practice())
		convey.So(err, convey.ShouldBeNil)
		record(f.ctrl, "10", "10", "9")
		_, err = f.ctrl.CompleteEnd(ctx)
		convey.So(err, convey.ShouldBeNil)
		record(f.ctrl, "5")

		convey.Convey("When a new controller starts over the same store", func() {
			next := scorecard.New(f.service, nil)
			convey.So(next.Init(ctx), convey.ShouldBeNil)

			convey.Convey("Then the session resumes at end 2 without the lost arrow", func() {
				current, ok := next.Current()
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(current.ID, convey.ShouldEqual, "session_a")
				convey.So(next.EndNumber(), convey.ShouldEqual, 2)
				convey.So(next.RunningTotal(), convey.ShouldEqual, 29)
				convey.So(next.Buffer(), convey.ShouldBeEmpty)
			})
		})
	})
}

func TestViews(t *testing.T) {
	convey.Convey("Given a controller on the scoring view", t, func() {
		f := newFixture()
		var changes []events.ViewChangedEvent
		f.bus.Subscribe(events.ViewChanged, func(p any) { changes = append(changes, p.(events.ViewChangedEvent)) })
		convey.So(f.ctrl.View(), convey.ShouldEqual, model.ViewScoring)

		convey.Convey("When switching to history", func() {
			convey.So(f.ctrl.SwitchView(model.ViewHistory), convey.ShouldBeNil)
			convey.So(f.ctrl.View(), convey.ShouldEqual, model.ViewHistory)
			convey.So(changes, convey.ShouldResemble, []events.ViewChangedEvent{{From: model.ViewScoring, To: model.ViewHistory}})
		})

		convey.Convey("When switching to an unknown view", func() {
			err := f.ctrl.SwitchView("stats")
			convey.So(errors.Is(err, scorecard.ErrInvalidView), convey.ShouldBeTrue)
			convey.So(f.ctrl.View(), convey.ShouldEqual, model.ViewScoring)
		})
	})
}

func shootOne(ctx context.Context, ctrl *scorecard.Controller, score model.ArrowScore) {
	sel := practice()
	sel.ArrowsPerEnd = 1
	sel.TotalEnds = 1
	_, err := ctrl.Start(ctx, sel)
	convey.So(err, convey.ShouldBeNil)
	record(ctrl, score)
	_, err = ctrl.CompleteEnd(ctx)
	convey.So(err, convey.ShouldBeNil)
}

func TestExportImport(t *testing.T) {
	convey.Convey("Given a history of two sessions", t, func() {
		ctx := context.Background()
		f := newFixture()
		shootOne(ctx, f.ctrl, model.InnerTen)
		shootOne(ctx, f.ctrl, model.Miss)

		var buf bytes.Buffer
		convey.So(f.ctrl.WriteExport(&buf), convey.ShouldBeNil)
		exported := buf.String()
		convey.So(exported, convey.ShouldContainSubstring, `"version": "1.0"`)
		convey.So(exported, convey.ShouldContainSubstring, `"X"`)

		convey.Convey("When it is imported into an empty store", func() {
			other := newFixture()
			n, err := other.ctrl.Import(ctx, strings.NewReader(exported))

			convey.Convey("Then the session list is reproduced", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(n, convey.ShouldEqual, 2)
				convey.So(other.ctrl.Sessions(), convey.ShouldResemble, f.ctrl.Sessions())
			})
		})

		convey.Convey("When it is imported back into the same store", func() {
			n, err := f.ctrl.Import(ctx, strings.NewReader(exported))

			convey.Convey("Then entries are duplicated", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(n, convey.ShouldEqual, 2)
				convey.So(f.ctrl.Sessions(), convey.ShouldHaveLength, 4)
				var stored []model.Session
				_, err := f.service.Load(ctx, store.KeySessions, &stored)
				convey.So(err, convey.ShouldBeNil)
				convey.So(stored, convey.ShouldHaveLength, 4)
			})
		})

		convey.Convey("When documents lack a sessions array", func() {
			for _, doc := range []string{`{}`, `{"sessions": {}}`, `{"sessions": null}`, `[1,2]`, `not json`} {
				_, err := f.ctrl.Import(ctx, strings.NewReader(doc))
				convey.So(errors.Is(err, scorecard.ErrInvalidDocument), convey.ShouldBeTrue)
			}
			convey.So(f.ctrl.Sessions(), convey.ShouldHaveLength, 2)
		})

		convey.Convey("When a session round has no target face", func() {
			doc := `{"sessions": [{"id": "s", "roundType": {"id": "practice-30m", "name": "Practice 30m", "distance": 30, "arrowsPerEnd": 3, "totalEnds": 10, "maxScore": 300}, "ends": []}]}`
			n, err := f.ctrl.Import(ctx, strings.NewReader(doc))

			convey.Convey("Then the catalog face is filled in", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(n, convey.ShouldEqual, 1)
				imported := f.ctrl.Sessions()[2]
				convey.So(imported.RoundType.TargetFace.Size, convey.ShouldEqual, 80)
				convey.So(imported.RoundType.TargetFace.Rings, convey.ShouldNotBeEmpty)
			})
		})

		convey.Convey("When a session round is inconsistent", func() {
			doc := `{"sessions": [{"id": "s", "roundType": {"id": "practice-30m", "name": "Practice 30m", "distance": 30, "arrowsPerEnd": 3, "totalEnds": 10, "maxScore": 999}, "ends": []}]}`
			_, err := f.ctrl.Import(ctx, strings.NewReader(doc))

			convey.Convey("Then the document is rejected", func() {
				convey.So(errors.Is(err, scorecard.ErrInvalidDocument), convey.ShouldBeTrue)
				convey.So(f.ctrl.Sessions(), convey.ShouldHaveLength, 2)
			})
		})

		convey.Convey("When a session holds an invalid arrow", func() {
			doc := `{"sessions": [{"id": "s", "ends": [{"number": 1, "arrows": [{"value": 11}]}]}]}`
			_, err := f.ctrl.Import(ctx, strings.NewReader(doc))
			convey.So(errors.Is(err, scorecard.ErrInvalidDocument), convey.ShouldBeTrue)
		})
	})
}

func TestClearAll(t *testing.T) {
	convey.Convey("Given stored history", t, func() {
		ctx := context.Background()
		f := newFixture()
		shootOne(ctx, f.ctrl, "9")

		convey.Convey("When clearing without confirmation", func() {
			err := f.ctrl.ClearAll(ctx, false)
			convey.So(errors.Is(err, scorecard.ErrNotConfirmed), convey.ShouldBeTrue)
			convey.So(f.ctrl.Sessions(), convey.ShouldHaveLength, 1)
		})

		convey.Convey("When clearing with confirmation", func() {
			convey.So(f.ctrl.ClearAll(ctx, true), convey.ShouldBeNil)
			convey.So(f.ctrl.Sessions(), convey.ShouldBeEmpty)
			convey.So(f.service.Exists(ctx, store.KeySessions), convey.ShouldBeFalse)
		})
	})
}

func TestUnreadableHistory(t *testing.T) {
	convey.Convey("Given a stored history that does not decode", t, func() {
		ctx := context.Background()
		f := newFixture()
		key := store.DefaultPrefix + "." + store.KeySessions
		const blob = `[{"id":"old1","ends":[{"number":1,"arrows":[{"value":9}],"total":9}]},` +
			`{"id":"old2","ends":[{"number":1,"arrows":[{"value":""}],"total":0}]}]`
		convey.So(f.backend.Set(ctx, key, blob), convey.ShouldBeNil)

		err := f.ctrl.Init(ctx)
		convey.So(err, convey.ShouldNotBeNil)

		convey.Convey("When a session is completed", func() {
			var saved int
			f.bus.Subscribe(events.SessionSaved, func(any) { saved++ })
			shootOne(ctx, f.ctrl, "5")

			convey.Convey("Then the stored record is left untouched", func() {
				raw, found, err := f.backend.Get(ctx, key)
				convey.So(err, convey.ShouldBeNil)
				convey.So(found, convey.ShouldBeTrue)
				convey.So(raw, convey.ShouldEqual, blob)
				convey.So(saved, convey.ShouldEqual, 0)
				convey.So(errors.Is(f.ctrl.LastError(), scorecard.ErrHistoryUnreadable), convey.ShouldBeTrue)
				convey.So(f.ctrl.History(), convey.ShouldHaveLength, 1)
			})
		})

		convey.Convey("When an export is imported", func() {
			doc := `{"sessions": [], "version": "1.0"}`
			_, err := f.ctrl.Import(ctx, strings.NewReader(doc))

			convey.Convey("Then the import is refused and the record survives", func() {
				convey.So(errors.Is(err, scorecard.ErrHistoryUnreadable), convey.ShouldBeTrue)
				raw, _, _ := f.backend.Get(ctx, key)
				convey.So(raw, convey.ShouldEqual, blob)
			})
		})
	})

	convey.Convey("Given history that was unreachable at startup", t, func() {
		ctx := context.Background()
		seed := newFixture()
		shootOne(ctx, seed.ctrl, "9")

		f := newFixture()
		f.backend = seed.backend
		f.service = seed.service
		f.ctrl = scorecard.New(f.service, f.bus)
		f.backend.SetAvailable(false)
		convey.So(f.ctrl.Init(ctx), convey.ShouldNotBeNil)
		f.backend.SetAvailable(true)

		convey.Convey("When a session completes after the store recovers", func() {
			shootOne(ctx, f.ctrl, "7")

			convey.Convey("Then the stored sessions come first and nothing is lost", func() {
				var stored []model.Session
				_, err := f.service.Load(ctx, store.KeySessions, &stored)
				convey.So(err, convey.ShouldBeNil)
				convey.So(stored, convey.ShouldHaveLength, 2)
				convey.So(stored[0].Total(), convey.ShouldEqual, 9)
				convey.So(stored[1].Total(), convey.ShouldEqual, 7)
				convey.So(f.ctrl.Sessions(), convey.ShouldHaveLength, 2)
			})
		})
	})
}

// regressingClock returns the given instants in order, then repeats the last one.
func regressingClock(instants ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := instants[min(i, len(instants)-1)]
		i++
		return t
	}
}

func TestTimestampsNeverGoBackwards(t *testing.T) {
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	at := func(sec int) time.Time { return base.Add(time.Duration(sec) * time.Second) }

	convey.Convey("Given a clock that runs backwards", t, func() {
		ctx := context.Background()
		svc := store.NewService(store.NewMemory())
		ctrl := scorecard.New(svc, nil, scorecard.WithClock(regressingClock(at(100), at(50), at(10), at(5))))

		convey.Convey("When a one-arrow session is shot", func() {
			shootOne(ctx, ctrl, "8")

			convey.Convey("Then every stamp holds at the first reading", func() {
				s := ctrl.History()[0]
				convey.So(s.StartTime.Equal(at(100)), convey.ShouldBeTrue)
				convey.So(s.Ends[0].Arrows[0].Timestamp.Equal(at(100)), convey.ShouldBeTrue)
				convey.So(s.Ends[0].Timestamp.Equal(at(100)), convey.ShouldBeTrue)
				convey.So(s.EndTime.Equal(at(100)), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a session resumed under an earlier clock", t, func() {
		ctx := context.Background()
		svc := store.NewService(store.NewMemory())
		first := scorecard.New(svc, nil, scorecard.WithClock(regressingClock(at(200), at(210), at(220))))
		sel := practice()
		sel.ArrowsPerEnd = 1
		sel.TotalEnds = 2
		_, err := first.Start(ctx, sel)
		convey.So(err, convey.ShouldBeNil)
		record(first, "9")
		_, err = first.CompleteEnd(ctx)
		convey.So(err, convey.ShouldBeNil)

		next := scorecard.New(svc, nil, scorecard.WithClock(regressingClock(at(1))))
		convey.So(next.Init(ctx), convey.ShouldBeNil)

		convey.Convey("When the last end is shot", func() {
			record(next, "10")
			_, err := next.CompleteEnd(ctx)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the new stamps continue from the stored ones", func() {
				s := next.History()[0]
				convey.So(s.Ends[1].Arrows[0].Timestamp.Equal(at(220)), convey.ShouldBeTrue)
				convey.So(s.Ends[1].Timestamp.Equal(at(220)), convey.ShouldBeTrue)
				convey.So(s.EndTime.Equal(at(220)), convey.ShouldBeTrue)
			})
		})
	})
}

func TestCustomSelection(t *testing.T) {
	convey.Convey("Given a fresh controller", t, func() {
		ctx := context.Background()
		f := newFixture()

		convey.Convey("When a configurable round gets a distance and face", func() {
			session, err := f.ctrl.Start(ctx, scorecard.Selection{
				RoundID: "custom-practice", BowID: "barebow", ArrowsPerEnd: 4, TotalEnds: 8, Distance: 25, FaceSize: 40,
			})

			convey.Convey("Then a custom round is built", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(session.RoundType.ID, convey.ShouldEqual, "custom-25m-4x8")
				convey.So(session.RoundType.Distance, convey.ShouldEqual, 25)
				convey.So(session.RoundType.TargetFace.Size, convey.ShouldEqual, 40)
				convey.So(session.RoundType.MaxScore, convey.ShouldEqual, 320)
			})
		})

		convey.Convey("When a fixed round gets a distance", func() {
			_, err := f.ctrl.Start(ctx, scorecard.Selection{RoundID: "70m-122cm", BowID: "recurve", Distance: 20})
			convey.So(errors.Is(err, scorecard.ErrNotConfigurable), convey.ShouldBeTrue)
		})

		convey.Convey("When the face size is unknown", func() {
			_, err := f.ctrl.Start(ctx, scorecard.Selection{RoundID: "custom-practice", BowID: "recurve", FaceSize: 60})
			convey.So(errors.Is(err, scorecard.ErrUnknown), convey.ShouldBeTrue)
			_, active := f.ctrl.Current()
			convey.So(active, convey.ShouldBeFalse)
		})
	})
}
