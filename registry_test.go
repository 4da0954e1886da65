package restfit

import (
	"net/http"
	"reflect"
	"testing"
)

func TestRegistryRegister(t *testing.T) {
	reg := NewRegistry()
	reg.Register("GetUser", http.MethodGet, "/users/{id}",
		Path("id", 0),
		Query("expand", 1),
	)

	desc, ok := reg.Descriptor("GetUser")
	if !ok {
		t.Fatal("Descriptor() did not find GetUser")
	}

	if desc.Method != http.MethodGet {
		t.Errorf("Expected method GET, got %s", desc.Method)
	}
	if desc.PathTemplate != "/users/{id}" {
		t.Errorf("Expected path /users/{id}, got %s", desc.PathTemplate)
	}

	want := []Binding{
		{Role: RolePath, Name: "id", Index: 0},
		{Role: RoleQuery, Name: "expand", Index: 1},
	}
	if got := desc.Bindings(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected bindings %v, got %v", want, got)
	}
}

func TestRegistryRegisterLowercaseVerb(t *testing.T) {
	reg := NewRegistry()
	reg.Register("List", "get", "/items")

	desc, _ := reg.Descriptor("List")
	if desc.Method != http.MethodGet {
		t.Errorf("Expected verb normalized to GET, got %s", desc.Method)
	}
}

func TestRegistryRegisterCumulative(t *testing.T) {
	handler := func(err *ClientError) (any, error) { return nil, err }

	reg := NewRegistry()
	reg.Register("GetUser", http.MethodGet, "/users/{id}", OnError(handler, 404))
	reg.Register("GetUser", "", "", OnError(handler), Intercept(func(r *Response) *Response { return nil }))

	desc, _ := reg.Descriptor("GetUser")

	if desc.Method != http.MethodGet || desc.PathTemplate != "/users/{id}" {
		t.Errorf("Second registration must not clear verb/path, got %s %s", desc.Method, desc.PathTemplate)
	}
	if len(desc.errorHandlers) != 2 {
		t.Errorf("Expected 2 error handlers after two registrations, got %d", len(desc.errorHandlers))
	}
	if len(desc.interceptors) != 1 {
		t.Errorf("Expected 1 interceptor, got %d", len(desc.interceptors))
	}
}

func TestRegistryUnknownMethod(t *testing.T) {
	reg := NewRegistry()

	if _, ok := reg.Descriptor("Nope"); ok {
		t.Error("Expected lookup miss for unregistered method")
	}
}

func TestRegistryMethodsSorted(t *testing.T) {
	reg := NewRegistry()
	reg.Register("b", http.MethodGet, "/b")
	reg.Register("a", http.MethodGet, "/a")
	reg.Register("c", http.MethodGet, "/c")

	want := []string{"a", "b", "c"}
	if got := reg.Methods(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestRegistryOnRetryReplaces(t *testing.T) {
	reg := NewRegistry()
	first := func(int, error) {}
	second := func(int, error) {}
	reg.Register("M", http.MethodGet, "/m", OnRetry(first))
	reg.Register("M", "", "", OnRetry(second))

	desc, _ := reg.Descriptor("M")
	if desc.onRetry == nil {
		t.Fatal("Expected retry hook to be set")
	}
}

func TestWithMethodPolicy(t *testing.T) {
	reg := NewRegistry()
	reg.Register("M", http.MethodGet, "/m", WithMethodPolicy(Policy{
		Retry: &RetryPolicy{Retries: Int(1)},
	}))

	desc, _ := reg.Descriptor("M")
	if desc.policy == nil || desc.policy.Retry == nil || *desc.policy.Retry.Retries != 1 {
		t.Error("Expected method policy override to be stored")
	}
}
