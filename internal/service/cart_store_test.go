package service

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
)

func TestCartAddIncrementsExistingItem(t *testing.T) {
	cart := NewCartStore()
	product := testProduct(1, "20", 5)
	if err := cart.Add(product); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := cart.Add(product); err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	items := cart.Items()
	if len(items) != 1 || items[0].Qty != 2 {
		t.Fatalf("expected one item with qty 2, got %+v", items)
	}
}

func TestCartAddOutOfStockLeavesCartUnchanged(t *testing.T) {
	cart := NewCartStore()
	if err := cart.Add(testProduct(1, "20", 5)); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	err := cart.Add(testProduct(2, "10", 0))
	if !errors.Is(err, ErrStockExceeded) {
		t.Fatalf("expected ErrStockExceeded, got %v", err)
	}
	if cart.Len() != 1 || cart.Count() != 1 {
		t.Fatalf("cart should be unchanged, len=%d count=%d", cart.Len(), cart.Count())
	}
}

func TestCartTotalsScenario(t *testing.T) {
	cart := NewCartStore()
	tacos := testProduct(1, "20", 10)
	limes := testProduct(2, "5", 10)
	for i := 0; i < 2; i++ {
		_ = cart.Add(tacos)
	}
	for i := 0; i < 3; i++ {
		_ = cart.Add(limes)
	}
	if cart.Total().String() != "55.00" {
		t.Fatalf("expected total 55.00, got %s", cart.Total().String())
	}
	if cart.Count() != 5 {
		t.Fatalf("expected count 5, got %d", cart.Count())
	}

	if err := cart.SetQty(2, 1); err != nil {
		t.Fatalf("set qty failed: %v", err)
	}
	if cart.Total().String() != "45.00" || cart.Count() != 3 {
		t.Fatalf("unexpected totals after set qty: %s %d", cart.Total().String(), cart.Count())
	}
	if err := cart.SetQty(1, 0); err != nil {
		t.Fatalf("set qty 0 failed: %v", err)
	}
	if cart.Len() != 1 || cart.Total().String() != "5.00" {
		t.Fatalf("qty 0 should remove item, got len=%d total=%s", cart.Len(), cart.Total().String())
	}
}

func TestCartUnknownItemErrors(t *testing.T) {
	cart := NewCartStore()
	if err := cart.SetQty(99, 2); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("expected ErrCartItemNotFound, got %v", err)
	}
	if err := cart.Remove(99); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("expected ErrCartItemNotFound, got %v", err)
	}
}

func TestCartPreservesInsertionOrder(t *testing.T) {
	cart := NewCartStore()
	_ = cart.Add(testProduct(3, "1", 1))
	_ = cart.Add(testProduct(1, "1", 1))
	_ = cart.Add(testProduct(2, "1", 1))
	_ = cart.Add(testProduct(3, "1", 1))
	items := cart.Items()
	if items[0].ProductID != 3 || items[1].ProductID != 1 || items[2].ProductID != 2 {
		t.Fatalf("unexpected order: %+v", items)
	}
}

func TestCartObserversReceiveEvents(t *testing.T) {
	cart := NewCartStore()
	var events []CartEvent
	unsubscribe := cart.Subscribe(func(event CartEvent) {
		events = append(events, event)
		_ = cart.Count()
	})
	_ = cart.Add(testProduct(1, "20", 5))
	_ = cart.SetQty(1, 3)
	cart.Clear()
	unsubscribe()
	_ = cart.Add(testProduct(1, "20", 5))

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[1].Kind != CartEventQuantityChanged || events[1].Count != 3 || events[1].Total.String() != "60.00" {
		t.Fatalf("unexpected quantity event: %+v", events[1])
	}
	if events[2].Kind != CartEventCleared || events[2].Count != 0 {
		t.Fatalf("unexpected clear event: %+v", events[2])
	}
}

func TestCartItemsReturnsCopy(t *testing.T) {
	cart := NewCartStore()
	_ = cart.Add(testProduct(1, "20", 5))
	items := cart.Items()
	items[0].Qty = 100
	if cart.Count() != 1 {
		t.Fatalf("mutating copy must not affect cart, count=%d", cart.Count())
	}
}

func TestCartTotalsMatchRunningModel(t *testing.T) {
	catalog := []struct {
		price string
		cents int64
	}{
		{"12.50", 1250},
		{"3.99", 399},
		{"0.75", 75},
		{"20", 2000},
		{"7.35", 735},
	}
	for seed := uint64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewPCG(seed, seed*31))
		cart := NewCartStore()
		qty := map[uint]int{}
		for step := 0; step < 200; step++ {
			idx := rng.IntN(len(catalog))
			id := uint(idx + 1)
			switch rng.IntN(3) {
			case 0:
				if err := cart.Add(testProduct(id, catalog[idx].price, 50)); err != nil {
					t.Fatalf("seed %d: add failed: %v", seed, err)
				}
				qty[id]++
			case 1:
				err := cart.Remove(id)
				if _, ok := qty[id]; ok != (err == nil) {
					t.Fatalf("seed %d: remove %d in cart=%v err=%v", seed, id, ok, err)
				}
				delete(qty, id)
			default:
				n := rng.IntN(6) - 1
				err := cart.SetQty(id, n)
				_, ok := qty[id]
				if ok != (err == nil) {
					t.Fatalf("seed %d: set qty %d in cart=%v err=%v", seed, id, ok, err)
				}
				if ok && n <= 0 {
					delete(qty, id)
				} else if ok {
					qty[id] = n
				}
			}

			var wantCents int64
			wantCount := 0
			for pid, q := range qty {
				wantCents += catalog[pid-1].cents * int64(q)
				wantCount += q
			}
			want := fmt.Sprintf("%d.%02d", wantCents/100, wantCents%100)
			if got := cart.Total().String(); got != want {
				t.Fatalf("seed %d step %d: total want %s got %s", seed, step, want, got)
			}
			if cart.Count() != wantCount || cart.Len() != len(qty) {
				t.Fatalf("seed %d step %d: count want %d/%d got %d/%d", seed, step, wantCount, len(qty), cart.Count(), cart.Len())
			}
		}
	}
}
