package policy_test

import (
	"testing"

	"taskapi/internal/models/user"
	"taskapi/internal/policy"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPolicy_Authorize(t *testing.T) {
	member := &user.Identity{UserID: uuid.New(), Username: "testuser"}
	staff := &user.Identity{UserID: uuid.New(), Username: "admin", IsStaff: true, IsSuperuser: true}
	superOnly := &user.Identity{UserID: uuid.New(), Username: "root", IsSuperuser: true}

	tests := []struct {
		name     string
		policy   policy.Policy
		op       policy.Operation
		identity *user.Identity
		want     policy.Decision
	}{
		{"anonymous list", policy.Policy{}, policy.ListTasks, nil, policy.Decision{Allowed: true}},
		{"anonymous filter", policy.Policy{}, policy.FilterTasks, nil, policy.Decision{Allowed: true}},
		{"anonymous get", policy.Policy{}, policy.GetTask, nil, policy.Decision{Allowed: true}},
		{"anonymous create", policy.Policy{}, policy.CreateTask, nil, policy.Decision{Allowed: true}},
		{"member create", policy.Policy{}, policy.CreateTask, member, policy.Decision{Allowed: true}},
		{"anonymous create when closed", policy.Policy{RequireAuthForCreate: true}, policy.CreateTask, nil,
			policy.Decision{Allowed: false, Reason: policy.ReasonUnauthenticated}},
		{"member create when closed", policy.Policy{RequireAuthForCreate: true}, policy.CreateTask, member, policy.Decision{Allowed: true}},
		{"anonymous update", policy.Policy{}, policy.UpdateTask, nil,
			policy.Decision{Allowed: false, Reason: policy.ReasonUnauthenticated}},
		{"member update", policy.Policy{}, policy.UpdateTask, member, policy.Decision{Allowed: true}},
		{"anonymous delete", policy.Policy{}, policy.DeleteTask, nil,
			policy.Decision{Allowed: false, Reason: policy.ReasonUnauthenticated}},
		{"member delete", policy.Policy{}, policy.DeleteTask, member,
			policy.Decision{Allowed: false, Reason: policy.ReasonForbidden}},
		{"superuser without staff delete", policy.Policy{}, policy.DeleteTask, superOnly,
			policy.Decision{Allowed: false, Reason: policy.ReasonForbidden}},
		{"staff delete", policy.Policy{}, policy.DeleteTask, staff, policy.Decision{Allowed: true}},
		{"unknown operation", policy.Policy{}, policy.Operation("purge"), staff,
			policy.Decision{Allowed: false, Reason: policy.ReasonUnknown}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Authorize(tt.op, tt.identity))
		})
	}
}
