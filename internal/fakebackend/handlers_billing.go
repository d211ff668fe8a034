package fakebackend

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jrsteele09/go-cowork-client/api"
)

const (
	paymentWallet = "wallet"
	invoiceUnpaid = "unpaid"
	invoicePaid   = "paid"
)

// invoiceLocked records a single-line invoice and returns it.
func (b *Backend) invoiceLocked(acc *account, description string, amount float64) *api.Invoice {
	invoice := &api.Invoice{
		ID:       b.nextID("invoice"),
		Amount:   amount,
		Status:   invoiceUnpaid,
		IssuedAt: b.now(),
		Lines:    []api.InvoiceLine{{Description: description, Amount: amount}},
	}
	invoice.Number = "INV-" + invoice.ID
	acc.invoices = append(acc.invoices, invoice)
	return invoice
}

func (b *Backend) dayPassesSoldLocked(date string) int {
	sold := 0
	for _, acc := range b.accounts {
		for _, pass := range acc.dayPasses {
			if pass.Date == date {
				sold++
			}
		}
	}
	return sold
}

func (b *Backend) dayPassCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		if _, err := time.Parse(dateLayout, date); err != nil {
			writeValidation(w, validationErrors{"date": {"The date must be in YYYY-MM-DD format."}})
			return
		}
		b.lock.Lock()
		remaining := dayPassCapacity - b.dayPassesSoldLocked(date)
		b.lock.Unlock()
		writeData(w, http.StatusOK, api.DayPassCheck{
			Date:      date,
			Available: remaining > 0,
			Price:     dayPassPrice,
			Remaining: remaining,
		}, "")
	}
}

// dayPassPurchaseHandler sells one pass. Paying from the wallet needs enough
// balance; other methods leave the invoice unpaid.
func (b *Backend) dayPassPurchaseHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.DayPassPurchase
		if !decodeJSON(r, &req) {
			writeError(w, http.StatusBadRequest, "Malformed request body.")
			return
		}
		if _, err := time.Parse(dateLayout, req.Date); err != nil || req.Date < b.today() {
			writeValidation(w, validationErrors{"date": {"The date must be today or later, in YYYY-MM-DD format."}})
			return
		}

		b.lock.Lock()
		defer b.lock.Unlock()
		if b.dayPassesSoldLocked(req.Date) >= dayPassCapacity {
			writeError(w, http.StatusConflict, "No day passes left for this date.")
			return
		}
		acc := b.accountLocked(memberFrom(r).ID)
		if req.PaymentMethod == paymentWallet && acc.balance < dayPassPrice {
			writeValidation(w, validationErrors{"payment_method": {"Insufficient wallet balance."}})
			return
		}

		pass := &api.DayPass{ID: b.nextID("daypass"), Date: req.Date, Status: "active", Price: dayPassPrice}
		acc.dayPasses = append(acc.dayPasses, pass)
		invoice := b.invoiceLocked(acc, "Day pass "+req.Date, dayPassPrice)
		if req.PaymentMethod == paymentWallet {
			acc.balance -= dayPassPrice
			invoice.Status = invoicePaid
			acc.transactions = append(acc.transactions, &api.Transaction{
				ID:          b.nextID("txn"),
				Type:        "debit",
				Amount:      dayPassPrice,
				Description: "Day pass " + req.Date,
				CreatedAt:   b.now(),
			})
		}
		b.notifyLocked(acc, "Day pass purchased", "Your day pass for "+req.Date+" is ready.")
		writeData(w, http.StatusCreated, *pass, "Day pass purchased.")
	}
}

func (b *Backend) dayPassesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.lock.Lock()
		defer b.lock.Unlock()
		acc := b.accountLocked(memberFrom(r).ID)
		passes := make([]api.DayPass, 0, len(acc.dayPasses))
		for _, pass := range acc.dayPasses {
			passes = append(passes, *pass)
		}
		writeData(w, http.StatusOK, passes, "")
	}
}

func (b *Backend) invoicesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.lock.Lock()
		defer b.lock.Unlock()
		acc := b.accountLocked(memberFrom(r).ID)
		invoices := make([]api.Invoice, 0, len(acc.invoices))
		for _, invoice := range newestFirst(acc.invoices) {
			invoices = append(invoices, *invoice)
		}
		writeData(w, http.StatusOK, paginate(r, invoices), "")
	}
}

func (b *Backend) invoiceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.lock.Lock()
		defer b.lock.Unlock()
		id := mux.Vars(r)["id"]
		for _, invoice := range b.accountLocked(memberFrom(r).ID).invoices {
			if invoice.ID == id {
				writeData(w, http.StatusOK, *invoice, "")
				return
			}
		}
		writeError(w, http.StatusNotFound, "Invoice not found.")
	}
}

func (b *Backend) walletBalanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.lock.Lock()
		balance := b.accountLocked(memberFrom(r).ID).balance
		b.lock.Unlock()
		writeData(w, http.StatusOK, api.WalletBalance{Balance: balance, Currency: currency}, "")
	}
}

func (b *Backend) walletTransactionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.lock.Lock()
		defer b.lock.Unlock()
		acc := b.accountLocked(memberFrom(r).ID)
		transactions := make([]api.Transaction, 0, len(acc.transactions))
		for _, txn := range newestFirst(acc.transactions) {
			transactions = append(transactions, *txn)
		}
		writeData(w, http.StatusOK, paginate(r, transactions), "")
	}
}
