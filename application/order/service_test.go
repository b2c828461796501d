package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"orderlifecycle/domain/order"
	"orderlifecycle/domain/shared"
	"orderlifecycle/infrastructure/persistence/memory"
	"orderlifecycle/infrastructure/persistence/retry"
	"orderlifecycle/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2025, 3, 11, 9, 30, 0, 0, time.UTC)

type fixture struct {
	svc     *ApplicationService
	repo    *memory.OrderRepository
	outbox  *memory.Outbox
	metrics *metrics.OrderMetrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := memory.NewOrderRepository()
	outbox := memory.NewOutbox()
	retryConfig := retry.Config{
		Enabled:                       true,
		MaxAttempts:                   10,
		InitialDelay:                  time.Millisecond,
		MaxDelay:                      5 * time.Millisecond,
		BackoffFactor:                 2,
		RetryOnConcurrentModification: true,
	}
	m := metrics.NewOrderMetrics(prometheus.NewRegistry())
	tr, err := NewTranslator("es")
	if err != nil {
		t.Fatal(err)
	}

	svc := NewApplicationService(
		repo,
		memory.NewSequenceAllocator(),
		memory.NewUnitOfWorkFactory(outbox, retryConfig),
		WithMetrics(m),
		WithTranslator(tr),
		WithClock(func() time.Time { return fixedNow }),
	)
	return &fixture{svc: svc, repo: repo, outbox: outbox, metrics: m}
}

func validCreateRequest(ref string) *CreateOrderRequest {
	return &CreateOrderRequest{
		ExternalReferenceID: ref,
		Channel:             "Ecommerce",
		PurchaseDate:        time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
		TotalValue:          decimal.NewFromInt(8000),
		Buyer: BuyerRequest{
			FirstName:      "Juan",
			LastName:       "Perez",
			DocumentNumber: "123456789",
			Phone:          "+541143345678",
		},
		Products: []ProductRequest{
			{Sku: "P001", Name: "Producto 1", Price: decimal.NewFromInt(1000), Quantity: 2},
			{Sku: "P002", Name: "Producto 2", Price: decimal.NewFromInt(1500), Quantity: 4},
		},
	}
}

func eventRequest(id, eventType string) *AddEventRequest {
	return &AddEventRequest{ID: id, Type: eventType, Date: fixedNow.Add(-time.Minute), User: "ops"}
}

func (f *fixture) create(t *testing.T, ref string) *CreateOrderResponse {
	t.Helper()
	resp, err := f.svc.CreateOrder(context.Background(), validCreateRequest(ref))
	if err != nil {
		t.Fatalf("CreateOrder(%s) error = %v", ref, err)
	}
	return resp
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	resp := f.create(t, "EC-1")

	if resp.OrderID != 1 || resp.Status != "Created" || resp.Idempotent {
		t.Fatalf("resp = %+v", resp)
	}
	if !resp.UpdatedOn.Equal(fixedNow) {
		t.Errorf("updatedOn = %v, want %v", resp.UpdatedOn, fixedNow)
	}

	stored, err := f.repo.FindByID(context.Background(), resp.OrderID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Events()) != 1 || stored.Status() != order.StatusCreated {
		t.Errorf("stored = %+v", stored.Snapshot())
	}

	events := f.outbox.Events()
	if len(events) != 1 || events[0].EventName() != order.EventNameOrderCreated {
		t.Errorf("outbox = %v", events)
	}
	if got := testutil.ToFloat64(f.metrics.Created.WithLabelValues("Ecommerce")); got != 1 {
		t.Errorf("created metric = %v", got)
	}
}

func TestCreateOrder_TotalMismatch(t *testing.T) {
	f := newFixture(t)
	req := validCreateRequest("EC-1")
	req.TotalValue = decimal.NewFromInt(9000)

	_, err := f.svc.CreateOrder(context.Background(), req)
	if !errors.Is(err, order.ErrTotalMismatch) {
		t.Fatalf("err = %v, want total mismatch", err)
	}
	if !strings.Contains(err.Error(), "9000") || !strings.Contains(err.Error(), "8000") {
		t.Errorf("message %q must carry both totals", err.Error())
	}
	if got := testutil.ToFloat64(f.metrics.Rejections.WithLabelValues(opCreate, "TOTAL_MISMATCH")); got != 1 {
		t.Errorf("rejection metric = %v", got)
	}
	if got := testutil.ToFloat64(f.metrics.Allocations); got != 0 {
		t.Error("rejected request must not allocate an id")
	}
}

func TestCreateOrder_ValidationErrors(t *testing.T) {
	f := newFixture(t)
	req := validCreateRequest("")
	req.Channel = "Fax"
	req.Buyer.Phone = "12345"
	req.Products[1].Quantity = 0

	_, err := f.svc.CreateOrder(context.Background(), req)
	var fieldErrs *shared.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("err = %v, want validation errors", err)
	}

	got := map[string]bool{}
	for _, fe := range fieldErrs.Fields {
		got[fe.Field] = true
	}
	for _, field := range []string{"externalReferenceId", "channel", "buyer.phone", "products[1].quantity"} {
		if !got[field] {
			t.Errorf("missing field error for %s in %v", field, fieldErrs.Fields)
		}
	}
}

func TestCreateOrder_BlankKeyFieldsRejected(t *testing.T) {
	f := newFixture(t)
	req := validCreateRequest("    ")
	req.Buyer.DocumentNumber = "     "

	_, err := f.svc.CreateOrder(context.Background(), req)
	if !errors.Is(err, shared.ErrInvalidInput) {
		t.Fatalf("err = %v, want invalid input", err)
	}
	orders, err := f.repo.Search(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 0 {
		t.Errorf("stored %d orders from a blank request", len(orders))
	}
}

func TestCreateOrder_IdempotentReplay(t *testing.T) {
	f := newFixture(t)
	first := f.create(t, "EC-1")

	req := validCreateRequest("EC-1")
	req.Channel = "ecommerce"
	second, err := f.svc.CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if second.OrderID != first.OrderID || !second.UpdatedOn.Equal(first.UpdatedOn) || !second.Idempotent {
		t.Fatalf("replay = %+v, first = %+v", second, first)
	}

	all, err := f.repo.Search(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("stored orders = %d, want 1", len(all))
	}
	if got := testutil.ToFloat64(f.metrics.Replays.WithLabelValues(opCreate)); got != 1 {
		t.Errorf("replay metric = %v", got)
	}

	// same reference on another channel is a different order
	other := validCreateRequest("EC-1")
	other.Channel = "Store"
	resp, err := f.svc.CreateOrder(context.Background(), other)
	if err != nil {
		t.Fatal(err)
	}
	if resp.OrderID == first.OrderID {
		t.Error("natural key includes the channel")
	}
}

func TestCreateOrder_ConcurrentDistinct(t *testing.T) {
	f := newFixture(t)
	const n = 50

	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := f.svc.CreateOrder(context.Background(), validCreateRequest(fmt.Sprintf("EC-%d", i)))
			if err != nil {
				t.Errorf("CreateOrder error = %v", err)
				return
			}
			ids <- resp.OrderID
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("order id %d issued twice", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Errorf("distinct ids = %d, want %d", len(seen), n)
	}
}

func TestCreateOrder_ConcurrentSameNaturalKey(t *testing.T) {
	f := newFixture(t)
	const n = 20

	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.svc.CreateOrder(context.Background(), validCreateRequest("EC-RACE"))
			if err != nil {
				t.Errorf("CreateOrder error = %v", err)
				return
			}
			ids <- resp.OrderID
		}()
	}
	wg.Wait()
	close(ids)

	var first int64
	for id := range ids {
		if first == 0 {
			first = id
		}
		if id != first {
			t.Fatalf("same natural key answered with ids %d and %d", first, id)
		}
	}

	all, err := f.repo.Search(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("stored orders = %d, want 1", len(all))
	}
}

func TestApplyEvent(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, "EC-1").OrderID
	ctx := context.Background()

	resp, err := f.svc.ApplyEvent(ctx, id, eventRequest("evt-1", "paymentreceived"))
	if err != nil {
		t.Fatalf("ApplyEvent error = %v", err)
	}
	if resp.PreviousStatus != "Created" || resp.NewStatus != "PaymentReceived" {
		t.Errorf("resp = %+v", resp)
	}
	if !resp.UpdatedOn.Equal(fixedNow.Add(-time.Minute)) {
		t.Errorf("updatedOn = %v, want the event date", resp.UpdatedOn)
	}

	stored, _ := f.repo.FindByID(ctx, id)
	if stored.Status() != order.StatusPaymentReceived || len(stored.Events()) != 2 {
		t.Errorf("stored = %+v", stored.Snapshot())
	}
	if stored.LastEvent().User != "ops" {
		t.Errorf("user = %q", stored.LastEvent().User)
	}
	if got := testutil.ToFloat64(f.metrics.EventsApplied.WithLabelValues("PaymentReceived")); got != 1 {
		t.Errorf("applied metric = %v", got)
	}
	if n := len(f.outbox.Events()); n != 2 {
		t.Errorf("outbox events = %d, want 2", n)
	}
}

func TestApplyEvent_Replay(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, "EC-1").OrderID
	ctx := context.Background()

	if _, err := f.svc.ApplyEvent(ctx, id, eventRequest("evt-1", "PaymentReceived")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.ApplyEvent(ctx, id, eventRequest("evt-2", "Invoiced")); err != nil {
		t.Fatal(err)
	}

	// replaying evt-1 reports the current status on both sides
	resp, err := f.svc.ApplyEvent(ctx, id, eventRequest("evt-1", "PaymentReceived"))
	if err != nil {
		t.Fatalf("replay error = %v", err)
	}
	if resp.PreviousStatus != "Invoiced" || resp.NewStatus != "Invoiced" || !resp.Idempotent {
		t.Errorf("replay = %+v", resp)
	}

	stored, _ := f.repo.FindByID(ctx, id)
	if len(stored.Events()) != 3 {
		t.Errorf("events = %d, replay must not append", len(stored.Events()))
	}
}

func TestApplyEvent_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		prepare []string
		attempt string
		current string
	}{
		{"created to invoiced", nil, "Invoiced", "Created"},
		{"payment received to returned", []string{"PaymentReceived"}, "Returned", "PaymentReceived"},
		{"cancelled is terminal", []string{"Cancelled"}, "PaymentReceived", "Cancelled"},
		{"created to created", nil, "Created", "Created"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			id := f.create(t, "EC-1").OrderID
			ctx := context.Background()
			for i, st := range tt.prepare {
				if _, err := f.svc.ApplyEvent(ctx, id, eventRequest(fmt.Sprintf("prep-%d", i), st)); err != nil {
					t.Fatal(err)
				}
			}

			_, err := f.svc.ApplyEvent(ctx, id, eventRequest("bad", tt.attempt))
			if !errors.Is(err, order.ErrInvalidTransition) || !errors.Is(err, shared.ErrBusinessRule) {
				t.Fatalf("err = %v, want invalid transition", err)
			}
			if !strings.Contains(err.Error(), tt.current) || !strings.Contains(err.Error(), tt.attempt) {
				t.Errorf("message %q must name %s and %s", err.Error(), tt.current, tt.attempt)
			}

			stored, _ := f.repo.FindByID(ctx, id)
			if string(stored.Status()) != tt.current {
				t.Errorf("status changed to %s", stored.Status())
			}
		})
	}
}

func TestApplyEvent_NotFoundAndValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ApplyEvent(ctx, 42, eventRequest("evt-1", "PaymentReceived"))
	if !errors.Is(err, order.ErrOrderNotFound) || !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}

	future := eventRequest("evt-1", "Shipped")
	future.Date = fixedNow.Add(time.Hour)
	_, err = f.svc.ApplyEvent(ctx, 42, future)
	var fieldErrs *shared.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs.Fields) != 2 {
		t.Fatalf("err = %v, want type and date errors", err)
	}
}

func TestApplyEvent_ConcurrentCompetingTransitions(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, "EC-1").OrderID
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, st := range []string{"PaymentReceived", "Cancelled"} {
		wg.Add(1)
		go func(i int, st string) {
			defer wg.Done()
			_, errs[i] = f.svc.ApplyEvent(ctx, id, eventRequest(fmt.Sprintf("evt-%d", i), st))
		}(i, st)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, order.ErrInvalidTransition):
		default:
			t.Errorf("unexpected error %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("succeeded = %d, want exactly 1 (%v)", succeeded, errs)
	}

	stored, _ := f.repo.FindByID(ctx, id)
	if len(stored.Events()) != 2 {
		t.Errorf("events = %d, want 2", len(stored.Events()))
	}
}

func TestApplyEvent_ConcurrentSameEvent(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, "EC-1").OrderID
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.ApplyEvent(ctx, id, eventRequest("evt-1", "PaymentReceived")); err != nil {
				t.Errorf("ApplyEvent error = %v", err)
			}
		}()
	}
	wg.Wait()

	stored, _ := f.repo.FindByID(ctx, id)
	if len(stored.Events()) != 2 {
		t.Errorf("events = %d, the event must be applied once", len(stored.Events()))
	}
}

func TestGetOrder(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, "EC-1").OrderID
	ctx := context.Background()
	if _, err := f.svc.ApplyEvent(ctx, id, eventRequest("evt-1", "PaymentReceived")); err != nil {
		t.Fatal(err)
	}

	resp, err := f.svc.GetOrder(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if resp.ChannelTranslate != "Comercio electronico" || resp.StatusTranslate != "Pago recibido" {
		t.Errorf("translations = %q / %q", resp.ChannelTranslate, resp.StatusTranslate)
	}
	if resp.LastEvent.ID != "evt-1" || len(resp.Events) != 2 || len(resp.Products) != 2 {
		t.Errorf("resp = %+v", resp)
	}
	if !resp.TotalValue.Equal(decimal.NewFromInt(8000)) {
		t.Errorf("totalValue = %s", resp.TotalValue)
	}

	if _, err := f.svc.GetOrder(ctx, 99); !errors.Is(err, order.ErrOrderNotFound) {
		t.Errorf("missing order err = %v", err)
	}
}

func TestSearchOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.create(t, "EC-1").OrderID
	second := f.create(t, "EC-2").OrderID
	if _, err := f.svc.ApplyEvent(ctx, second, eventRequest("evt-1", "Cancelled")); err != nil {
		t.Fatal(err)
	}

	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	zero := int64(0)

	tests := []struct {
		name string
		req  SearchOrdersRequest
		want []int64
	}{
		{"no filter", SearchOrdersRequest{}, []int64{first, second}},
		{"status", SearchOrdersRequest{Status: "Created"}, []int64{first}},
		{"status any case", SearchOrdersRequest{Status: " cancelled "}, []int64{second}},
		{"unknown status", SearchOrdersRequest{Status: "Shipped"}, []int64{}},
		{"order id", SearchOrdersRequest{OrderID: &second}, []int64{second}},
		{"document number", SearchOrdersRequest{DocumentNumber: "123456789"}, []int64{first, second}},
		{"range", SearchOrdersRequest{CreatedOnFrom: &past, CreatedOnTo: &future}, []int64{first, second}},
		{"inverted range", SearchOrdersRequest{CreatedOnFrom: &future, CreatedOnTo: &past}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.SearchOrders(ctx, tt.req)
			if err != nil {
				t.Fatalf("SearchOrders error = %v", err)
			}
			if got == nil {
				t.Fatal("result must be an empty slice, not nil")
			}
			ids := make([]int64, len(got))
			for i, r := range got {
				ids[i] = r.OrderID
			}
			if fmt.Sprint(ids) != fmt.Sprint(tt.want) {
				t.Errorf("ids = %v, want %v", ids, tt.want)
			}
		})
	}

	_, err := f.svc.SearchOrders(ctx, SearchOrdersRequest{OrderID: &zero})
	if !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("orderId 0 err = %v, want validation", err)
	}
}
