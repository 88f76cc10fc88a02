package integration

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"merchant-collections/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentAbonos fires 50 concurrent payments with distinct idempotency
// keys against one merchant. Every insert goes through the shared-state
// balance recomputation, so the final balance must be exact: no payment lost,
// none double-counted.
func TestConcurrentAbonos(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.seedStaff(t, "admin@registry.test", "AdminPass123!", domain.RoleAdmin, nil, true)
	token := app.login(t, "admin@registry.test", "AdminPass123!")

	zoneID := app.createZone(t, token, "Zone A")
	merchantID := app.createMerchant(t, token, "Amina", 1000000, zoneID)

	concurrency := 50
	amount := int64(10000)

	var wg sync.WaitGroup
	var successCount atomic.Int64
	var failCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			status := app.doJSON(t, http.MethodPost, "/api/v1/merchants/"+merchantID+"/abonos", token,
				map[string]any{
					"amount":          amount,
					"idempotency_key": fmt.Sprintf("concurrent-%d", idx),
				}, nil)
			if status == http.StatusCreated {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}(i)
	}
	wg.Wait()

	t.Logf("Concurrent abonos: %d succeeded, %d failed (out of %d)", successCount.Load(), failCount.Load(), concurrency)
	assert.Equal(t, int64(concurrency), successCount.Load(), "all payments fit within the debt")

	var m merchantEnvelope
	status := app.doJSON(t, http.MethodGet, "/api/v1/merchants/"+merchantID, token, nil, &m)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1000000)-amount*int64(concurrency), m.Data.Balance)
	assert.Equal(t, "PARTIAL", m.Data.Status)
}

// TestConcurrentAbonos_AcrossMerchants runs concurrent payments against
// different merchants to check that per-merchant ledgers never bleed into
// each other under parallel load.
func TestConcurrentAbonos_AcrossMerchants(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.seedStaff(t, "admin@registry.test", "AdminPass123!", domain.RoleAdmin, nil, true)
	token := app.login(t, "admin@registry.test", "AdminPass123!")

	zoneID := app.createZone(t, token, "Zone A")

	merchantCount := 10
	paymentsEach := 5
	amount := int64(2000)

	ids := make([]string, merchantCount)
	for i := range ids {
		ids[i] = app.createMerchant(t, token, fmt.Sprintf("Merchant%d", i), 100000, zoneID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		for p := 0; p < paymentsEach; p++ {
			wg.Add(1)
			go func(merchantID string, seq int) {
				defer wg.Done()
				status := app.doJSON(t, http.MethodPost, "/api/v1/merchants/"+merchantID+"/abonos", token,
					map[string]any{
						"amount":          amount,
						"idempotency_key": fmt.Sprintf("%s-%d", merchantID, seq),
					}, nil)
				assert.Equal(t, http.StatusCreated, status)
			}(id, p)
		}
	}
	wg.Wait()

	expected := int64(100000) - amount*int64(paymentsEach)
	for _, id := range ids {
		var m merchantEnvelope
		status := app.doJSON(t, http.MethodGet, "/api/v1/merchants/"+id, token, nil, &m)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, expected, m.Data.Balance, "merchant %s", id)
	}
}

// TestConcurrentReceiptConfirmations confirms handoff for many merchants from
// parallel batches. Each merchant appears in exactly one batch, so every
// delivery count must land at exactly one.
func TestConcurrentReceiptConfirmations(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.seedStaff(t, "admin@registry.test", "AdminPass123!", domain.RoleAdmin, nil, true)
	token := app.login(t, "admin@registry.test", "AdminPass123!")

	zoneID := app.createZone(t, token, "Zone A")

	batches := 5
	perBatch := 4
	all := make([][]string, batches)
	for b := 0; b < batches; b++ {
		for i := 0; i < perBatch; i++ {
			id := app.createMerchant(t, token, fmt.Sprintf("Batch%dM%d", b, i), 10000, zoneID)
			all[b] = append(all[b], id)
		}
	}

	var wg sync.WaitGroup
	var confirmedTotal atomic.Int64
	for b := 0; b < batches; b++ {
		wg.Add(1)
		go func(ids []string) {
			defer wg.Done()
			var result struct {
				Data struct {
					Confirmed []string `json:"confirmed"`
					Failed    []string `json:"failed"`
				} `json:"data"`
			}
			status := app.doJSON(t, http.MethodPost, "/api/v1/receipts/confirm", token,
				map[string]any{"merchant_ids": ids}, &result)
			assert.Equal(t, http.StatusOK, status)
			assert.Empty(t, result.Data.Failed)
			confirmedTotal.Add(int64(len(result.Data.Confirmed)))
		}(all[b])
	}
	wg.Wait()

	assert.Equal(t, int64(batches*perBatch), confirmedTotal.Load())

	// Each merchant was handed over exactly once
	app.state.mu.RLock()
	defer app.state.mu.RUnlock()
	for _, batch := range all {
		for _, idStr := range batch {
			id, err := uuid.Parse(idStr)
			require.NoError(t, err)
			m := app.state.merchants[id]
			require.NotNil(t, m)
			assert.True(t, m.AdminReceived)
			assert.False(t, m.ReadyForAdmin)
			assert.Equal(t, 1, m.DeliveryCount)
		}
	}
}
