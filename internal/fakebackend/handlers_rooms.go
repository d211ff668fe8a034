package fakebackend

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/jrsteele09/go-cowork-client/api"
)

const (
	bookingConfirmed = "confirmed"
	bookingCancelled = "cancelled"
)

type slot struct {
	date       string
	start, end time.Time
}

func (s slot) overlaps(o slot) bool {
	return s.date == o.date && s.start.Before(o.end) && o.start.Before(s.end)
}

func (s slot) hours() float64 {
	return s.end.Sub(s.start).Hours()
}

// parseSlot validates a date and HH:MM range, recording problems in errs.
func parseSlot(date, start, end string, errs validationErrors) slot {
	var s slot
	if _, err := time.Parse(dateLayout, date); err != nil {
		errs.add("date", "The date must be in YYYY-MM-DD format.")
	}
	s.date = date
	var err error
	if s.start, err = time.Parse(clockLayout, start); err != nil {
		errs.add("start_time", "The start time must be in HH:MM format.")
	}
	if s.end, err = time.Parse(clockLayout, end); err != nil {
		errs.add("end_time", "The end time must be in HH:MM format.")
	}
	if len(errs) == 0 && !s.end.After(s.start) {
		errs.add("end_time", "The end time must be after the start time.")
	}
	return s
}

func bookingSlot(booking *api.Booking) slot {
	start, _ := time.Parse(clockLayout, booking.StartTime)
	end, _ := time.Parse(clockLayout, booking.EndTime)
	return slot{date: booking.Date, start: start, end: end}
}

func (b *Backend) room(id string) (api.Room, bool) {
	for _, room := range b.rooms {
		if room.ID == id {
			return room, true
		}
	}
	return api.Room{}, false
}

// roomTakenLocked reports whether a confirmed booking other than exceptID
// holds roomID during s.
func (b *Backend) roomTakenLocked(roomID string, s slot, exceptID string) bool {
	for _, acc := range b.accounts {
		for _, booking := range acc.bookings {
			if booking.RoomID != roomID || booking.ID == exceptID || booking.Status != bookingConfirmed {
				continue
			}
			if bookingSlot(booking).overlaps(s) {
				return true
			}
		}
	}
	return false
}

func (b *Backend) roomsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeData(w, http.StatusOK, b.rooms, "")
	}
}

func (b *Backend) roomHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, ok := b.room(mux.Vars(r)["id"])
		if !ok {
			writeError(w, http.StatusNotFound, "Room not found.")
			return
		}
		writeData(w, http.StatusOK, room, "")
	}
}

func (b *Backend) availableRoomsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		capacity, _ := strconv.Atoi(query.Get("capacity"))

		var wanted *slot
		if query.Get("date") != "" || query.Get("start_time") != "" || query.Get("end_time") != "" {
			errs := validationErrors{}
			s := parseSlot(query.Get("date"), query.Get("start_time"), query.Get("end_time"), errs)
			if len(errs) > 0 {
				writeValidation(w, errs)
				return
			}
			wanted = &s
		}

		b.lock.Lock()
		defer b.lock.Unlock()
		available := make([]api.Room, 0, len(b.rooms))
		for _, room := range b.rooms {
			if room.Capacity < capacity {
				continue
			}
			if wanted != nil && b.roomTakenLocked(room.ID, *wanted, "") {
				continue
			}
			available = append(available, room)
		}
		writeData(w, http.StatusOK, available, "")
	}
}

func (b *Backend) bookingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := r.URL.Query().Get("status")
		today := b.today()

		b.lock.Lock()
		acc := b.accountLocked(memberFrom(r).ID)
		bookings := make([]api.Booking, 0, len(acc.bookings))
		for _, booking := range acc.bookings {
			switch status {
			case "upcoming":
				if booking.Status != bookingConfirmed || booking.Date < today {
					continue
				}
			case "past":
				if booking.Status != bookingConfirmed || booking.Date >= today {
					continue
				}
			case bookingCancelled:
				if booking.Status != bookingCancelled {
					continue
				}
			}
			bookings = append(bookings, *booking)
		}
		b.lock.Unlock()
		writeData(w, http.StatusOK, bookings, "")
	}
}

func (b *Backend) findBookingLocked(acc *account, id string) *api.Booking {
	for _, booking := range acc.bookings {
		if booking.ID == id {
			return booking
		}
	}
	return nil
}

func (b *Backend) bookingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.lock.Lock()
		booking := b.findBookingLocked(b.accountLocked(memberFrom(r).ID), mux.Vars(r)["id"])
		var out api.Booking
		if booking != nil {
			out = *booking
		}
		b.lock.Unlock()
		if booking == nil {
			writeError(w, http.StatusNotFound, "Booking not found.")
			return
		}
		writeData(w, http.StatusOK, out, "")
	}
}

// createBookingHandler answers 422 for an invalid slot and 409 when the room
// is already booked for an overlapping slot.
func (b *Backend) createBookingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.BookingRequest
		if !decodeJSON(r, &req) {
			writeError(w, http.StatusBadRequest, "Malformed request body.")
			return
		}
		errs := validationErrors{}
		room, ok := b.room(req.RoomID)
		if !ok {
			errs.add("room_id", "The selected room is invalid.")
		}
		s := parseSlot(req.Date, req.StartTime, req.EndTime, errs)
		if len(errs) == 0 && req.Date < b.today() {
			errs.add("date", "The date must be today or later.")
		}
		if len(errs) > 0 {
			writeValidation(w, errs)
			return
		}

		member := memberFrom(r)
		b.lock.Lock()
		if b.roomTakenLocked(room.ID, s, "") {
			b.lock.Unlock()
			writeError(w, http.StatusConflict, "The room is already booked for this time slot.")
			return
		}
		acc := b.accountLocked(member.ID)
		booking := &api.Booking{
			ID:        b.nextID("booking"),
			RoomID:    room.ID,
			Room:      &room,
			Date:      req.Date,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			Status:    bookingConfirmed,
			Total:     room.HourlyRate * s.hours(),
			CreatedAt: b.now(),
		}
		acc.bookings = append(acc.bookings, booking)
		b.invoiceLocked(acc, fmt.Sprintf("%s on %s %s-%s", room.Name, req.Date, req.StartTime, req.EndTime), booking.Total)
		b.notifyLocked(acc, "Booking confirmed", fmt.Sprintf("%s is booked for %s at %s.", room.Name, req.Date, req.StartTime))
		out := *booking
		b.lock.Unlock()

		writeData(w, http.StatusCreated, out, "Booking created.")
	}
}

func (b *Backend) rescheduleBookingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.RescheduleRequest
		if !decodeJSON(r, &req) {
			writeError(w, http.StatusBadRequest, "Malformed request body.")
			return
		}
		errs := validationErrors{}
		s := parseSlot(req.Date, req.StartTime, req.EndTime, errs)
		if len(errs) > 0 {
			writeValidation(w, errs)
			return
		}

		b.lock.Lock()
		defer b.lock.Unlock()
		acc := b.accountLocked(memberFrom(r).ID)
		booking := b.findBookingLocked(acc, mux.Vars(r)["id"])
		switch {
		case booking == nil:
			writeError(w, http.StatusNotFound, "Booking not found.")
			return
		case booking.Status == bookingCancelled:
			writeValidation(w, validationErrors{"status": {"A cancelled booking cannot be rescheduled."}})
			return
		case b.roomTakenLocked(booking.RoomID, s, booking.ID):
			writeError(w, http.StatusConflict, "The room is already booked for this time slot.")
			return
		}
		booking.Date, booking.StartTime, booking.EndTime = req.Date, req.StartTime, req.EndTime
		if room, ok := b.room(booking.RoomID); ok {
			booking.Total = room.HourlyRate * s.hours()
		}
		b.notifyLocked(acc, "Booking rescheduled", fmt.Sprintf("Your booking now starts %s at %s.", req.Date, req.StartTime))
		writeData(w, http.StatusOK, *booking, "Booking rescheduled.")
	}
}

func (b *Backend) cancelBookingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.lock.Lock()
		defer b.lock.Unlock()
		acc := b.accountLocked(memberFrom(r).ID)
		booking := b.findBookingLocked(acc, mux.Vars(r)["id"])
		if booking == nil {
			writeError(w, http.StatusNotFound, "Booking not found.")
			return
		}
		if booking.Status == bookingCancelled {
			writeValidation(w, validationErrors{"status": {"The booking is already cancelled."}})
			return
		}
		booking.Status = bookingCancelled
		b.notifyLocked(acc, "Booking cancelled", fmt.Sprintf("Your booking on %s was cancelled.", booking.Date))
		writeData(w, http.StatusOK, *booking, "Booking cancelled.")
	}
}
