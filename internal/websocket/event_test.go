package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_TypeComposition(t *testing.T) {
	assert.Equal(t, "budget.updated", BudgetUpdated(nil).Type)
	assert.Equal(t, "budget.alert", BudgetAlert(nil).Type)
	assert.Equal(t, "goal.updated", GoalUpdated(nil).Type)
	assert.Equal(t, "goal.completed", GoalCompleted(nil).Type)
	assert.Equal(t, "transaction.created", TransactionCreated(nil).Type)
	assert.Equal(t, "transaction.updated", TransactionUpdated(nil).Type)
	assert.Equal(t, "transaction.deleted", TransactionDeleted(nil).Type)
}

func TestEvent_ToJSON(t *testing.T) {
	evt := BudgetAlert(map[string]interface{}{"budgetId": "abc", "violations": []string{}})

	data, err := evt.ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "budget.alert", decoded["type"])
	assert.Equal(t, "budget", decoded["entity"])
	assert.NotEmpty(t, decoded["timestamp"])

	payload, ok := decoded["payload"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "abc", payload["budgetId"])
}
