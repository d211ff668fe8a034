package fakebackend

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/jrsteele09/go-cowork-client/api"
)

const defaultRecentLimit = 5

func (b *Backend) notify(memberID, title, body string) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.notifyLocked(b.accountLocked(memberID), title, body)
}

func (b *Backend) notifyLocked(acc *account, title, body string) {
	acc.notifications = append(acc.notifications, &api.Notification{
		ID:        b.nextID("notification"),
		Title:     title,
		Body:      body,
		CreatedAt: b.now(),
	})
}

func notificationValues(items []*api.Notification) []api.Notification {
	out := make([]api.Notification, 0, len(items))
	for _, n := range newestFirst(items) {
		out = append(out, *n)
	}
	return out
}

func (b *Backend) notificationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.lock.Lock()
		defer b.lock.Unlock()
		notifications := notificationValues(b.accountLocked(memberFrom(r).ID).notifications)
		writeData(w, http.StatusOK, paginate(r, notifications), "")
	}
}

func (b *Backend) unreadCountHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.lock.Lock()
		defer b.lock.Unlock()
		count := 0
		for _, n := range b.accountLocked(memberFrom(r).ID).notifications {
			if !n.Read {
				count++
			}
		}
		writeData(w, http.StatusOK, api.UnreadCount{Count: count}, "")
	}
}

func (b *Backend) recentNotificationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit <= 0 {
			limit = defaultRecentLimit
		}
		b.lock.Lock()
		defer b.lock.Unlock()
		notifications := notificationValues(b.accountLocked(memberFrom(r).ID).notifications)
		writeData(w, http.StatusOK, notifications[:min(limit, len(notifications))], "")
	}
}

func (b *Backend) markReadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.lock.Lock()
		defer b.lock.Unlock()
		id := mux.Vars(r)["id"]
		for _, n := range b.accountLocked(memberFrom(r).ID).notifications {
			if n.ID == id {
				n.Read = true
				writeData(w, http.StatusOK, *n, "")
				return
			}
		}
		writeError(w, http.StatusNotFound, "Notification not found.")
	}
}

func (b *Backend) markAllReadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.lock.Lock()
		defer b.lock.Unlock()
		for _, n := range b.accountLocked(memberFrom(r).ID).notifications {
			n.Read = true
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "All notifications marked as read."})
	}
}

func (b *Backend) deleteNotificationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.lock.Lock()
		defer b.lock.Unlock()
		acc := b.accountLocked(memberFrom(r).ID)
		id := mux.Vars(r)["id"]
		for i, n := range acc.notifications {
			if n.ID == id {
				acc.notifications = append(acc.notifications[:i], acc.notifications[i+1:]...)
				writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Notification deleted."})
				return
			}
		}
		writeError(w, http.StatusNotFound, "Notification not found.")
	}
}

func (b *Backend) clearReadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.lock.Lock()
		defer b.lock.Unlock()
		acc := b.accountLocked(memberFrom(r).ID)
		kept := acc.notifications[:0]
		for _, n := range acc.notifications {
			if !n.Read {
				kept = append(kept, n)
			}
		}
		acc.notifications = kept
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Read notifications cleared."})
	}
}

// scheduleTodayHandler merges today's bookings, day passes and open food
// orders into one agenda.
func (b *Backend) scheduleTodayHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		today := b.today()
		b.lock.Lock()
		defer b.lock.Unlock()
		acc := b.accountLocked(memberFrom(r).ID)

		entries := []api.ScheduleEntry{}
		for _, booking := range acc.bookings {
			if booking.Date != today || booking.Status != bookingConfirmed {
				continue
			}
			title := booking.RoomID
			if booking.Room != nil {
				title = booking.Room.Name
			}
			entries = append(entries, api.ScheduleEntry{
				Kind: "booking", RefID: booking.ID, Title: title,
				StartTime: booking.StartTime, EndTime: booking.EndTime,
			})
		}
		for _, pass := range acc.dayPasses {
			if pass.Date == today {
				entries = append(entries, api.ScheduleEntry{Kind: "day_pass", RefID: pass.ID, Title: "Day pass"})
			}
		}
		for _, order := range acc.orders {
			if order.Status == orderPending && order.CreatedAt.Format(dateLayout) == today {
				entries = append(entries, api.ScheduleEntry{Kind: "food_order", RefID: order.ID, Title: "Food order " + order.ID})
			}
		}
		writeData(w, http.StatusOK, entries, "")
	}
}
