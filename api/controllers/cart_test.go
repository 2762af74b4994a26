package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/cart"
)

type stubCartService struct {
	added      *cart.AddItemRequest
	updatedID  uuid.UUID
	updatedQty int
	removedID  uuid.UUID
	removeLine bool
}

func (s *stubCartService) Get(context.Context, uuid.UUID) (*cart.CartDTO, error) {
	return &cart.CartDTO{ID: uuid.New(), Items: []cart.Line{}, Total: decimal.Zero}, nil
}

func (s *stubCartService) AddItem(_ context.Context, _ uuid.UUID, req cart.AddItemRequest) (*cart.Line, error) {
	s.added = &req
	return &cart.Line{ID: uuid.New(), ProductID: req.ProductID, Size: req.Size, Quantity: req.Quantity}, nil
}

func (s *stubCartService) UpdateItem(_ context.Context, _, itemID uuid.UUID, quantity int) (*cart.Line, error) {
	s.updatedID, s.updatedQty = itemID, quantity
	if quantity <= 0 {
		return nil, nil
	}
	return &cart.Line{ID: itemID, Quantity: quantity}, nil
}

func (s *stubCartService) RemoveItem(_ context.Context, _, itemID uuid.UUID) error {
	s.removedID = itemID
	return nil
}

func (s *stubCartService) Clear(context.Context, uuid.UUID) error { return nil }

func TestCartAddReturnsCart(t *testing.T) {
	svc := &stubCartService{}
	productID := uuid.New()
	req := asUser(newRequest(http.MethodPost, "/api/v1/cart", `{"productId":"`+productID.String()+`","size":"M","quantity":2}`), uuid.New())

	rec, env := serve(t, CartAdd(svc, nil), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.added == nil || svc.added.ProductID != productID || svc.added.Quantity != 2 {
		t.Fatalf("unexpected add request: %+v", svc.added)
	}
	var body cart.CartDTO
	decodeData(t, env, &body)
	if body.ID == uuid.Nil {
		t.Fatal("expected cart in response")
	}
}

func TestCartAddItemReturnsLine(t *testing.T) {
	req := asUser(newRequest(http.MethodPost, "/api/v1/cart/add", `{"productId":"`+uuid.NewString()+`","size":"L","quantity":1}`), uuid.New())
	rec, env := serve(t, CartAddItem(&stubCartService{}, nil), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		CartItem *cart.Line `json:"cartItem"`
	}
	decodeData(t, env, &body)
	if body.CartItem == nil || body.CartItem.Size != "L" {
		t.Fatalf("unexpected cart item: %+v", body.CartItem)
	}
}

func TestCartAddRejectsBadQuantity(t *testing.T) {
	req := asUser(newRequest(http.MethodPost, "/api/v1/cart", `{"productId":"`+uuid.NewString()+`","size":"M","quantity":0}`), uuid.New())
	if rec, _ := serve(t, CartAdd(&stubCartService{}, nil), req); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCartUpdateItemZeroRemoves(t *testing.T) {
	svc := &stubCartService{}
	itemID := uuid.New()
	req := asUser(newRequest(http.MethodPost, "/api/v1/cart/update", `{"cartItemId":"`+itemID.String()+`","quantity":0}`), uuid.New())

	rec, env := serve(t, CartUpdateItem(svc, nil), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.updatedID != itemID || svc.updatedQty != 0 {
		t.Fatalf("unexpected update: %s %d", svc.updatedID, svc.updatedQty)
	}
	if string(env.Data) != `{"cartItem":null}` {
		t.Fatalf("expected null cartItem, got %s", env.Data)
	}
}

func TestCartUpdateReturnsCart(t *testing.T) {
	svc := &stubCartService{}
	itemID := uuid.New()
	req := asUser(newRequest(http.MethodPut, "/api/v1/cart", `{"itemId":"`+itemID.String()+`","quantity":3}`), uuid.New())
	if rec, _ := serve(t, CartUpdate(svc, nil), req); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.updatedQty != 3 {
		t.Fatalf("expected quantity 3, got %d", svc.updatedQty)
	}
}

func TestCartRemoveVariants(t *testing.T) {
	itemID := uuid.New()

	svc := &stubCartService{}
	req := asUser(newRequest(http.MethodDelete, "/api/v1/cart?itemId="+itemID.String(), ""), uuid.New())
	if rec, _ := serve(t, CartRemove(svc, nil), req); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.removedID != itemID {
		t.Fatalf("expected %s removed, got %s", itemID, svc.removedID)
	}

	req = asUser(newRequest(http.MethodDelete, "/api/v1/cart", ""), uuid.New())
	if rec, _ := serve(t, CartRemove(&stubCartService{}, nil), req); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without itemId, got %d", rec.Code)
	}

	svc = &stubCartService{}
	req = asUser(newRequest(http.MethodPost, "/api/v1/cart/remove", `{"cartItemId":"`+itemID.String()+`"}`), uuid.New())
	rec, env := serve(t, CartRemoveItem(svc, nil), req)
	if rec.Code != http.StatusOK || svc.removedID != itemID {
		t.Fatalf("expected removal, got %d %s", rec.Code, svc.removedID)
	}
	var body successResponse
	decodeData(t, env, &body)
	if !body.Success {
		t.Fatal("expected success true")
	}
}

func TestCartRequiresSession(t *testing.T) {
	if rec, _ := serve(t, CartGet(&stubCartService{}, nil), newRequest(http.MethodGet, "/api/v1/cart", "")); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
