package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"

	"github.com/radieske/wager-match-engine/internal/wallet-service/dto"
	"github.com/radieske/wager-match-engine/internal/wallet-service/repo"
)

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWalletAPI(t *testing.T) {
	Convey("Given the wallet API over an in-memory store", t, func() {
		store := repo.NewMemory()
		h := NewServer(zap.NewNop(), store).Router()

		Convey("GET /wallet creates an empty wallet", func() {
			rec := do(h, http.MethodGet, "/wallet?userId=u1", "")
			So(rec.Code, ShouldEqual, http.StatusOK)

			var resp dto.WalletResponse
			So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
			So(resp.UserID, ShouldEqual, "u1")
			So(resp.WalletID, ShouldNotBeEmpty)
			So(resp.BalanceCents, ShouldEqual, 0)
		})

		Convey("GET /wallet without userId is a bad request", func() {
			rec := do(h, http.MethodGet, "/wallet", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Deposit then withdraw moves the balance", func() {
			rec := do(h, http.MethodPost, "/wallet/deposit", `{"userId":"u1","amount_cents":1000}`)
			So(rec.Code, ShouldEqual, http.StatusOK)

			rec = do(h, http.MethodPost, "/wallet/withdraw", `{"userId":"u1","amount_cents":400,"external_ref":"sale-1"}`)
			So(rec.Code, ShouldEqual, http.StatusOK)

			var resp dto.WalletResponse
			So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
			So(resp.BalanceCents, ShouldEqual, 600)
		})

		Convey("Overdrawing is a conflict", func() {
			store.Open("u2", 100)
			rec := do(h, http.MethodPost, "/wallet/withdraw", `{"userId":"u2","amount_cents":400}`)
			So(rec.Code, ShouldEqual, http.StatusConflict)
		})

		Convey("Withdrawing from an unknown wallet is not found", func() {
			rec := do(h, http.MethodPost, "/wallet/withdraw", `{"userId":"ghost","amount_cents":1}`)
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Malformed payloads are rejected", func() {
			So(do(h, http.MethodPost, "/wallet/deposit", `{`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/wallet/deposit", `{"userId":"u1","amount_cents":-5}`).Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}
