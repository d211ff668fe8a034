package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/jrsteele09/go-cowork-client/api"
	"github.com/jrsteele09/go-cowork-client/app"
	"github.com/jrsteele09/go-cowork-client/gateway"
	"github.com/jrsteele09/go-cowork-client/internal/utils"
	"github.com/jrsteele09/go-cowork-client/session"
)

type commandEnv struct {
	app    *app.App
	out    io.Writer
	errOut io.Writer
}

type command struct {
	summary string
	run     func(ctx context.Context, env *commandEnv, args []string) error
}

var commands = map[string]command{
	"login":         {"sign in with email and password", runLogin},
	"send-otp":      {"send a one-time code to a phone or email", runSendOTP},
	"verify-otp":    {"sign in with a one-time code", runVerifyOTP},
	"logout":        {"end the session", runLogout},
	"whoami":        {"show the signed-in member", runWhoami},
	"profile":       {"update name, phone, company or avatar", runProfile},
	"rooms":         {"list rooms, optionally only available ones", runRooms},
	"book":          {"book a room", runBook},
	"bookings":      {"list bookings", runBookings},
	"cancel":        {"cancel a booking", runCancel},
	"menu":          {"list food items", runMenu},
	"day-pass":      {"check or buy a day pass", runDayPass},
	"wallet":        {"show wallet balance and recent transactions", runWallet},
	"invoices":      {"list invoices", runInvoices},
	"notifications": {"list notifications", runNotifications},
	"today":         {"show today's schedule", runToday},
}

func parseFlags(name string, env *commandEnv, args []string, define func(*flag.FlagSet)) (*flag.FlagSet, error) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(env.errOut)
	if define != nil {
		define(flags)
	}
	return flags, flags.Parse(args)
}

// report prints the outcome of a write call. Validation (422) and conflict
// (409) responses are shown with their field errors.
func report(env *commandEnv, resp *gateway.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.Success {
		fmt.Fprintln(env.errOut, resp.Message)
		var fields map[string][]string
		if json.Unmarshal(resp.Errors, &fields) == nil {
			for field, messages := range fields {
				for _, m := range messages {
					fmt.Fprintf(env.errOut, "  %s: %s\n", field, m)
				}
			}
		}
		return errUnsuccessful
	}
	if resp.Message != "" {
		fmt.Fprintln(env.out, resp.Message)
	}
	return nil
}

func table(out io.Writer, header string, rows func(w io.Writer)) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, header)
	rows(w)
	_ = w.Flush()
}

func runLogin(ctx context.Context, env *commandEnv, args []string) error {
	var email, password string
	if _, err := parseFlags("login", env, args, func(f *flag.FlagSet) {
		f.StringVar(&email, "email", "", "account email")
		f.StringVar(&password, "password", "", "account password")
	}); err != nil {
		return err
	}
	resp, err := env.app.Login(ctx, email, password)
	if err := report(env, resp, err); err != nil {
		return err
	}
	if user := env.app.State.User(); user != nil {
		fmt.Fprintf(env.out, "Signed in as %s <%s>\n", user.Name, user.Email)
	}
	return nil
}

func runSendOTP(ctx context.Context, env *commandEnv, args []string) error {
	var req api.SendOTPRequest
	if _, err := parseFlags("send-otp", env, args, func(f *flag.FlagSet) {
		f.StringVar(&req.Phone, "phone", "", "phone number")
		f.StringVar(&req.Email, "email", "", "email address")
	}); err != nil {
		return err
	}
	resp, err := env.app.API.Auth.SendOTP(ctx, req)
	return report(env, resp, err)
}

func runVerifyOTP(ctx context.Context, env *commandEnv, args []string) error {
	var req api.VerifyOTPRequest
	if _, err := parseFlags("verify-otp", env, args, func(f *flag.FlagSet) {
		f.StringVar(&req.Phone, "phone", "", "phone number")
		f.StringVar(&req.Email, "email", "", "email address")
		f.StringVar(&req.OTP, "code", "", "one-time code")
	}); err != nil {
		return err
	}
	resp, err := env.app.API.Auth.VerifyOTP(ctx, req)
	return report(env, resp, err)
}

func runLogout(ctx context.Context, env *commandEnv, _ []string) error {
	if err := env.app.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(env.out, "Signed out.")
	return nil
}

// runWhoami prints what the token says about itself, if it is a JWT, then
// asks the backend who the member is.
func runWhoami(ctx context.Context, env *commandEnv, _ []string) error {
	if !env.app.Store.Authenticated() {
		fmt.Fprintln(env.out, "Not signed in.")
		return nil
	}
	claims, err := env.app.Store.Claims()
	switch {
	case errors.Is(err, session.ErrMalformedJWT):
	case err != nil:
		return err
	case !claims.ExpiresAt.IsZero():
		fmt.Fprintf(env.out, "Token expires %s\n", claims.ExpiresAt.Local().Format(time.RFC1123))
		if claims.Expired(time.Now()) {
			fmt.Fprintln(env.out, "Token looks expired; the next call will sign you out.")
		}
	}
	if err := env.app.Restore(ctx); err != nil {
		return err
	}
	user := env.app.State.User()
	fmt.Fprintf(env.out, "%s <%s> %s\n", user.Name, user.Email, user.Role)
	return nil
}

func runProfile(ctx context.Context, env *commandEnv, args []string) error {
	var name, phone, company, avatarPath string
	if _, err := parseFlags("profile", env, args, func(f *flag.FlagSet) {
		f.StringVar(&name, "name", "", "display name")
		f.StringVar(&phone, "phone", "", "phone number")
		f.StringVar(&company, "company", "", "company")
		f.StringVar(&avatarPath, "avatar", "", "path to an image file")
	}); err != nil {
		return err
	}
	update := api.ProfileUpdate{
		Name:    utils.PtrIfSet(name),
		Phone:   utils.PtrIfSet(phone),
		Company: utils.PtrIfSet(company),
	}
	var avatar *api.Avatar
	if avatarPath != "" {
		content, err := os.ReadFile(avatarPath)
		if err != nil {
			return err
		}
		avatar = &api.Avatar{
			Filename:    filepath.Base(avatarPath),
			ContentType: mime.TypeByExtension(filepath.Ext(avatarPath)),
			Content:     content,
		}
	}
	resp, err := env.app.API.Profile.Update(ctx, update, avatar)
	return report(env, resp, err)
}

func runRooms(ctx context.Context, env *commandEnv, args []string) error {
	var available bool
	var q api.AvailabilityQuery
	if _, err := parseFlags("rooms", env, args, func(f *flag.FlagSet) {
		f.BoolVar(&available, "available", false, "only rooms free for the given slot")
		f.StringVar(&q.Date, "date", "", "YYYY-MM-DD")
		f.StringVar(&q.StartTime, "start", "", "HH:MM")
		f.StringVar(&q.EndTime, "end", "", "HH:MM")
		f.IntVar(&q.Capacity, "capacity", 0, "minimum capacity")
	}); err != nil {
		return err
	}
	var rooms []api.Room
	var err error
	if available {
		rooms, err = env.app.API.Rooms.Available(ctx, q)
	} else {
		rooms, err = env.app.API.Rooms.List(ctx)
	}
	if err != nil {
		return err
	}
	table(env.out, "ID\tNAME\tCAPACITY\tRATE", func(w io.Writer) {
		for _, r := range rooms {
			fmt.Fprintf(w, "%s\t%s\t%d\t%.2f/h\n", r.ID, r.Name, r.Capacity, r.HourlyRate)
		}
	})
	return nil
}

func runBook(ctx context.Context, env *commandEnv, args []string) error {
	var req api.BookingRequest
	if _, err := parseFlags("book", env, args, func(f *flag.FlagSet) {
		f.StringVar(&req.RoomID, "room", "", "room id")
		f.StringVar(&req.Date, "date", "", "YYYY-MM-DD")
		f.StringVar(&req.StartTime, "start", "", "HH:MM")
		f.StringVar(&req.EndTime, "end", "", "HH:MM")
		f.StringVar(&req.Notes, "notes", "", "notes for the front desk")
	}); err != nil {
		return err
	}
	resp, err := env.app.API.Bookings.Create(ctx, req)
	if err := report(env, resp, err); err != nil {
		return err
	}
	var booking api.Booking
	if err := resp.Decode(&booking); err == nil {
		fmt.Fprintf(env.out, "Booking %s: %s %s-%s, total %.2f\n", booking.ID, booking.Date, booking.StartTime, booking.EndTime, booking.Total)
	}
	return nil
}

func runBookings(ctx context.Context, env *commandEnv, args []string) error {
	var status string
	if _, err := parseFlags("bookings", env, args, func(f *flag.FlagSet) {
		f.StringVar(&status, "status", "", "upcoming, past or cancelled")
	}); err != nil {
		return err
	}
	bookings, err := env.app.API.Bookings.List(ctx, status)
	if err != nil {
		return err
	}
	table(env.out, "ID\tROOM\tDATE\tTIME\tSTATUS", func(w io.Writer) {
		for _, b := range bookings {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s-%s\t%s\n", b.ID, b.RoomID, b.Date, b.StartTime, b.EndTime, b.Status)
		}
	})
	return nil
}

func runCancel(ctx context.Context, env *commandEnv, args []string) error {
	flags, err := parseFlags("cancel", env, args, nil)
	if err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: coworkctl cancel <booking-id>")
	}
	resp, err := env.app.API.Bookings.Cancel(ctx, flags.Arg(0))
	return report(env, resp, err)
}

func runMenu(ctx context.Context, env *commandEnv, args []string) error {
	var category string
	if _, err := parseFlags("menu", env, args, func(f *flag.FlagSet) {
		f.StringVar(&category, "category", "", "only this category")
	}); err != nil {
		return err
	}
	items, err := env.app.API.Food.Items(ctx, category)
	if err != nil {
		return err
	}
	table(env.out, "ID\tNAME\tCATEGORY\tPRICE\tAVAILABLE", func(w io.Writer) {
		for _, item := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%t\n", item.ID, item.Name, item.Category, item.Price, item.Available)
		}
	})
	return nil
}

func runDayPass(ctx context.Context, env *commandEnv, args []string) error {
	var date, payment string
	var buy bool
	if _, err := parseFlags("day-pass", env, args, func(f *flag.FlagSet) {
		f.StringVar(&date, "date", time.Now().Format("2006-01-02"), "YYYY-MM-DD")
		f.BoolVar(&buy, "buy", false, "purchase instead of checking")
		f.StringVar(&payment, "pay", "", "payment method, e.g. wallet")
	}); err != nil {
		return err
	}
	if buy {
		resp, err := env.app.API.DayPasses.Purchase(ctx, api.DayPassPurchase{Date: date, PaymentMethod: payment})
		return report(env, resp, err)
	}
	check, err := env.app.API.DayPasses.Check(ctx, date)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.out, "%s: available=%t remaining=%d price=%.2f\n", check.Date, check.Available, check.Remaining, check.Price)
	return nil
}

func runWallet(ctx context.Context, env *commandEnv, _ []string) error {
	balance, err := env.app.API.Wallet.Balance(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.out, "Balance: %.2f %s\n", balance.Balance, balance.Currency)
	transactions, err := env.app.API.Wallet.Transactions(ctx, api.Page{Page: 1, PerPage: 10})
	if err != nil {
		return err
	}
	table(env.out, "ID\tTYPE\tAMOUNT\tDESCRIPTION", func(w io.Writer) {
		for _, t := range transactions {
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", t.ID, t.Type, t.Amount, t.Description)
		}
	})
	return nil
}

func runInvoices(ctx context.Context, env *commandEnv, args []string) error {
	var page api.Page
	if _, err := parseFlags("invoices", env, args, func(f *flag.FlagSet) {
		f.IntVar(&page.Page, "page", 1, "page number")
		f.IntVar(&page.PerPage, "per-page", 20, "page size")
	}); err != nil {
		return err
	}
	invoices, err := env.app.API.Invoices.List(ctx, page)
	if err != nil {
		return err
	}
	table(env.out, "NUMBER\tAMOUNT\tSTATUS\tISSUED", func(w io.Writer) {
		for _, inv := range invoices {
			fmt.Fprintf(w, "%s\t%.2f\t%s\t%s\n", inv.Number, inv.Amount, inv.Status, inv.IssuedAt.Format("2006-01-02"))
		}
	})
	return nil
}

func runNotifications(ctx context.Context, env *commandEnv, args []string) error {
	var markAll bool
	if _, err := parseFlags("notifications", env, args, func(f *flag.FlagSet) {
		f.BoolVar(&markAll, "mark-read", false, "mark all as read after listing")
	}); err != nil {
		return err
	}
	count, err := env.app.API.Notifications.UnreadCount(ctx)
	if err != nil {
		return err
	}
	notifications, err := env.app.API.Notifications.List(ctx, api.Page{})
	if err != nil {
		return err
	}
	fmt.Fprintf(env.out, "%d unread\n", count)
	table(env.out, "\tTITLE\tBODY", func(w io.Writer) {
		for _, n := range notifications {
			marker := "*"
			if n.Read {
				marker = " "
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", marker, n.Title, n.Body)
		}
	})
	if markAll {
		resp, err := env.app.API.Notifications.MarkAllRead(ctx)
		return report(env, resp, err)
	}
	return nil
}

func runToday(ctx context.Context, env *commandEnv, _ []string) error {
	entries, err := env.app.API.Schedule.Today(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(env.out, "Nothing scheduled today.")
		return nil
	}
	table(env.out, "KIND\tTITLE\tTIME", func(w io.Writer) {
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s-%s\n", e.Kind, e.Title, e.StartTime, e.EndTime)
		}
	})
	return nil
}
