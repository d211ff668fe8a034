package fakebackend

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jrsteele09/go-cowork-client/api"
)

const (
	orderPending   = "pending"
	orderCancelled = "cancelled"
)

func (b *Backend) foodItem(id string) (api.FoodItem, bool) {
	for _, item := range b.foodItems {
		if item.ID == id {
			return item, true
		}
	}
	return api.FoodItem{}, false
}

func (b *Backend) foodItemsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := r.URL.Query().Get("category")
		items := make([]api.FoodItem, 0, len(b.foodItems))
		for _, item := range b.foodItems {
			if category == "" || item.Category == category {
				items = append(items, item)
			}
		}
		writeData(w, http.StatusOK, items, "")
	}
}

func (b *Backend) foodItemHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, ok := b.foodItem(mux.Vars(r)["id"])
		if !ok {
			writeError(w, http.StatusNotFound, "Food item not found.")
			return
		}
		writeData(w, http.StatusOK, item, "")
	}
}

func (b *Backend) foodOrdersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.lock.Lock()
		acc := b.accountLocked(memberFrom(r).ID)
		orders := make([]api.FoodOrder, 0, len(acc.orders))
		for _, order := range newestFirst(acc.orders) {
			orders = append(orders, *order)
		}
		b.lock.Unlock()
		writeData(w, http.StatusOK, paginate(r, orders), "")
	}
}

func (b *Backend) findOrderLocked(acc *account, id string) *api.FoodOrder {
	for _, order := range acc.orders {
		if order.ID == id {
			return order
		}
	}
	return nil
}

func (b *Backend) foodOrderHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.lock.Lock()
		defer b.lock.Unlock()
		order := b.findOrderLocked(b.accountLocked(memberFrom(r).ID), mux.Vars(r)["id"])
		if order == nil {
			writeError(w, http.StatusNotFound, "Order not found.")
			return
		}
		writeData(w, http.StatusOK, *order, "")
	}
}

func (b *Backend) createFoodOrderHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.FoodOrderRequest
		if !decodeJSON(r, &req) {
			writeError(w, http.StatusBadRequest, "Malformed request body.")
			return
		}
		errs := validationErrors{}
		if len(req.Items) == 0 {
			errs.add("items", "At least one item is required.")
		}
		var total float64
		for i, line := range req.Items {
			field := fmt.Sprintf("items.%d", i)
			item, ok := b.foodItem(line.FoodItemID)
			switch {
			case !ok:
				errs.add(field+".food_item_id", "The selected item is invalid.")
			case !item.Available:
				errs.add(field+".food_item_id", fmt.Sprintf("%s is not available.", item.Name))
			case line.Quantity < 1:
				errs.add(field+".quantity", "The quantity must be at least 1.")
			default:
				total += item.Price * float64(line.Quantity)
			}
		}
		if len(errs) > 0 {
			writeValidation(w, errs)
			return
		}

		b.lock.Lock()
		acc := b.accountLocked(memberFrom(r).ID)
		order := &api.FoodOrder{
			ID:        b.nextID("order"),
			Items:     append([]api.OrderLine(nil), req.Items...),
			Status:    orderPending,
			Total:     total,
			CreatedAt: b.now(),
		}
		acc.orders = append(acc.orders, order)
		b.invoiceLocked(acc, "Food order "+order.ID, total)
		b.notifyLocked(acc, "Order received", fmt.Sprintf("Your order %s is being prepared.", order.ID))
		out := *order
		b.lock.Unlock()

		writeData(w, http.StatusCreated, out, "Order placed.")
	}
}

func (b *Backend) cancelFoodOrderHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.lock.Lock()
		defer b.lock.Unlock()
		acc := b.accountLocked(memberFrom(r).ID)
		order := b.findOrderLocked(acc, mux.Vars(r)["id"])
		if order == nil {
			writeError(w, http.StatusNotFound, "Order not found.")
			return
		}
		if order.Status != orderPending {
			writeValidation(w, validationErrors{"status": {"Only pending orders can be cancelled."}})
			return
		}
		order.Status = orderCancelled
		writeData(w, http.StatusOK, *order, "Order cancelled.")
	}
}
