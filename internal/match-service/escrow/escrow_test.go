package escrow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap/zaptest"

	"github.com/radieske/wager-match-engine/internal/match-service/sim"
	walletrepo "github.com/radieske/wager-match-engine/internal/wallet-service/repo"
)

// flaky falha as primeiras chamadas de Atomically com erro transitório
type flaky struct {
	*walletrepo.Memory
	failures atomic.Int32
}

var errConnReset = errors.New("connection reset by peer")

func (f *flaky) Atomically(ctx context.Context, ids []string, fn func(walletrepo.Tx) error) error {
	if f.failures.Add(-1) >= 0 {
		return errConnReset
	}
	return f.Memory.Atomically(ctx, ids, fn)
}

// sneaky tira saldo de um lado entre o desafio e o aceite
type sneaky struct {
	*walletrepo.Memory
	drain string
}

func (s *sneaky) Atomically(ctx context.Context, ids []string, fn func(walletrepo.Tx) error) error {
	if s.drain != "" {
		_, _, _ = s.Memory.Withdraw(ctx, s.drain, 300, "trade")
		s.drain = ""
	}
	return s.Memory.Atomically(ctx, ids, fn)
}

func balances(m *walletrepo.Memory, ids ...string) (total int64, each []int64) {
	for _, id := range ids {
		b, _ := m.Balance(context.Background(), id)
		each = append(each, b)
		total += b
	}
	return total, each
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	Convey("Given two wallets", t, func() {
		m := walletrepo.NewMemory()
		m.Open("home", 1000)
		m.Open("away", 400)
		e := New(m, 500)

		Convey("A stake below the minimum is invalid", func() {
			err := e.Validate(ctx, "home", "away", 499)
			So(errors.Is(err, ErrInvalidStake), ShouldBeTrue)
		})

		Convey("A short wallet is named in the error", func() {
			err := e.Validate(ctx, "home", "away", 500)
			So(errors.Is(err, ErrInsufficientFunds), ShouldBeTrue)

			var fe *FundsError
			So(errors.As(err, &fe), ShouldBeTrue)
			So(fe.CompetitorID, ShouldEqual, "away")
			So(fe.Balance, ShouldEqual, 400)
		})

		Convey("Validation never moves money", func() {
			m.Open("away", 600)
			So(e.Validate(ctx, "home", "away", 500), ShouldBeNil)
			total, _ := balances(m, "home", "away")
			So(total, ShouldEqual, 2000)
		})

		Convey("Unknown wallets are reported", func() {
			err := e.Validate(ctx, "home", "ghost", 500)
			So(errors.Is(err, walletrepo.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestHold(t *testing.T) {
	ctx := context.Background()

	Convey("Given two funded wallets", t, func() {
		m := walletrepo.NewMemory()
		m.Open("home", 1000)
		m.Open("away", 700)

		Convey("Hold debits both sides", func() {
			tk, err := New(m, 500).Hold(ctx, "s1", "home", "away", 500)
			So(err, ShouldBeNil)
			So(tk.Status, ShouldEqual, StatusHeld)
			So(tk.Pot(), ShouldEqual, 1000)

			_, each := balances(m, "home", "away")
			So(each, ShouldResemble, []int64{500, 200})
			So(m.Ledger("away")[0].Description, ShouldEqual, "escrow:s1")
		})

		Convey("A balance drained after validation aborts without any debit", func() {
			s := &sneaky{Memory: m, drain: "away"}
			e := New(s, 500)
			So(e.Validate(ctx, "home", "away", 500), ShouldBeNil)

			before, _ := balances(m, "home", "away")
			_, err := e.Hold(ctx, "s1", "home", "away", 500)
			So(errors.Is(err, ErrBalanceChanged), ShouldBeTrue)

			after, each := balances(m, "home", "away")
			So(after, ShouldEqual, before-300)
			So(each[0], ShouldEqual, 1000)
			So(m.Ledger("home"), ShouldBeEmpty)
		})

		Convey("Holding against yourself is rejected", func() {
			_, err := New(m, 500).Hold(ctx, "s1", "home", "home", 500)
			So(errors.Is(err, ErrInvalidStake), ShouldBeTrue)
		})
	})
}

func TestSettle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a held ticket of 500 each", t, func() {
		m := walletrepo.NewMemory()
		m.Open("home", 1000)
		m.Open("away", 1000)
		tk, err := New(m, 500).Hold(ctx, "s1", "home", "away", 500)
		So(err, ShouldBeNil)
		st := NewSettler(m, zaptest.NewLogger(t))

		Convey("A home win pays the pot to home", func() {
			pay, err := st.Settle(ctx, tk, sim.OutcomeHome)
			So(err, ShouldBeNil)
			So(pay, ShouldResemble, Payout{Home: 1000})
			So(tk.Status, ShouldEqual, StatusSettled)

			_, each := balances(m, "home", "away")
			So(each, ShouldResemble, []int64{1500, 500})
		})

		Convey("An away win pays the pot to away", func() {
			_, err := st.Settle(ctx, tk, sim.OutcomeAway)
			So(err, ShouldBeNil)
			_, each := balances(m, "home", "away")
			So(each, ShouldResemble, []int64{500, 1500})
		})

		Convey("A draw refunds each stake", func() {
			pay, err := st.Settle(ctx, tk, sim.OutcomeDraw)
			So(err, ShouldBeNil)
			So(pay.Total(), ShouldEqual, tk.Pot())
			_, each := balances(m, "home", "away")
			So(each, ShouldResemble, []int64{1000, 1000})
		})

		Convey("Settling twice is a programming error", func() {
			_, _ = st.Settle(ctx, tk, sim.OutcomeHome)
			So(func() { _, _ = st.Settle(ctx, tk, sim.OutcomeHome) }, ShouldPanic)
		})

		Convey("Transient failures are retried until the pot lands", func() {
			f := &flaky{Memory: m}
			f.failures.Store(3)
			fs := NewSettler(f, zaptest.NewLogger(t))
			fs.Backoff = time.Millisecond

			pay, err := fs.Settle(ctx, tk, sim.OutcomeAway)
			So(err, ShouldBeNil)
			So(pay.Away, ShouldEqual, 1000)
			So(f.failures.Load(), ShouldBeLessThan, 0)

			total, _ := balances(m, "home", "away")
			So(total, ShouldEqual, 2000)
		})

		Convey("A cancelled caller context does not stop settlement", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := st.Settle(cctx, tk, sim.OutcomeHome)
			So(err, ShouldBeNil)
			total, _ := balances(m, "home", "away")
			So(total, ShouldEqual, 2000)
		})
	})
}

func TestConcurrentMatchesShareWallets(t *testing.T) {
	ctx := context.Background()

	Convey("Many holds and settlements on the same wallets conserve funds", t, func() {
		m := walletrepo.NewMemory()
		m.Open("a", 50_000)
		m.Open("b", 50_000)
		m.Open("c", 50_000)
		e := New(m, 500)
		st := NewSettler(m, nil)

		pairs := [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}}
		outcomes := []sim.Outcome{sim.OutcomeHome, sim.OutcomeAway, sim.OutcomeDraw}

		var wg sync.WaitGroup
		for i := 0; i < 60; i++ {
			p := pairs[i%len(pairs)]
			o := outcomes[i%len(outcomes)]
			wg.Add(1)
			go func() {
				defer wg.Done()
				tk, err := e.Hold(ctx, "s", p[0], p[1], 500)
				if err != nil {
					return
				}
				_, _ = st.Settle(ctx, tk, o)
			}()
		}
		wg.Wait()

		total, _ := balances(m, "a", "b", "c")
		So(total, ShouldEqual, 150_000)
	})
}
