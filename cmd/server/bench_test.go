package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/zari-storefront/internal/adapter/cache"
	"github.com/example/zari-storefront/internal/adapter/httpapi"
	"github.com/example/zari-storefront/internal/cart"
	"github.com/example/zari-storefront/internal/checkout"
	"github.com/example/zari-storefront/internal/clientstate"
	"github.com/example/zari-storefront/internal/delivery"
	"github.com/example/zari-storefront/internal/domain"
	"github.com/example/zari-storefront/internal/receiptcodec"
	"github.com/example/zari-storefront/internal/usecase"
	"github.com/google/uuid"
)

func BenchmarkHandleState(b *testing.B) {
	state := clientstate.NewService(cache.NewMemoryStateStore(), nil)
	clients := make([]string, 1000)
	for i := range clients {
		clients[i] = uuid.NewString()
		_, _ = state.UpdateCart(context.Background(), clients[i], func(c *cart.Cart) error {
			_, err := c.Add(domain.Product{ID: fmt.Sprintf("p-%d", i), NameEn: "Oud", UnitPrice: 100})
			return err
		})
	}
	codec, _ := receiptcodec.New("bench")
	uc, _ := usecase.NewCheckout(state, &checkout.Config{Table: delivery.Default(), Codec: codec}, nil, nil, nil)
	router := httpapi.NewServer(httpapi.Deps{State: state, Checkout: uc, Table: delivery.Default()}).Router

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
			req.Header.Set(httpapi.ClientIDHeader, clients[i%len(clients)])
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			i++
		}
	})
}

func BenchmarkReceiptEncode(b *testing.B) {
	codec, _ := receiptcodec.New("bench")
	text := "ZARI PERFUMES RECEIPT\nMethod: DELIVERY\nTOTAL PAYABLE: 250 AED\n"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = codec.Encode(text)
	}
}
