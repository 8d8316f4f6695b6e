package mcpservice

import (
	"context"
	"strings"
	"testing"

	"github.com/yeison-liscano/http-mcp/mcp"
)

type noOut struct {
	OK bool `json:"ok"`
}

func publicTool(name string) Tool {
	return NewTool(name, func(_ context.Context, _ Arguments[NoArguments]) (noOut, error) {
		return noOut{OK: true}, nil
	})
}

func scopedTool(name string, scopes ...string) Tool {
	return NewTool(name, func(_ context.Context, _ Arguments[NoArguments]) (noOut, error) {
		return noOut{OK: true}, nil
	}, WithToolScopes(scopes...))
}

func publicPrompt(name string) Prompt {
	return NewPromptNoArgs(name, func(_ context.Context) ([]mcp.PromptMessage, error) {
		return []mcp.PromptMessage{{Role: mcp.RoleUser, Content: mcp.NewTextContent("hi")}}, nil
	})
}

func TestNewServer_RejectsDuplicateNames(t *testing.T) {
	_, err := NewServer("t", "1.0.0", WithTools(publicTool("a"), publicTool("a")))
	if err == nil || !strings.Contains(err.Error(), "duplicate tool name") {
		t.Fatalf("expected duplicate tool error, got %v", err)
	}

	_, err = NewServer("t", "1.0.0", WithPrompts(publicPrompt("p"), publicPrompt("p")))
	if err == nil || !strings.Contains(err.Error(), "duplicate prompt name") {
		t.Fatalf("expected duplicate prompt error, got %v", err)
	}
}

func TestServer_Capabilities(t *testing.T) {
	empty, err := NewServer("t", "1.0.0")
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}
	caps := empty.Capabilities()
	if caps.Tools != nil || caps.Prompts != nil {
		t.Fatalf("expected absent capabilities, got %+v", caps)
	}

	full, err := NewServer("t", "1.0.0", WithTools(publicTool("a")), WithPrompts(publicPrompt("p")))
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}
	caps = full.Capabilities()
	if caps.Tools == nil || caps.Prompts == nil {
		t.Fatalf("expected both capabilities present, got %+v", caps)
	}
	if caps.Tools.ListChanged || caps.Tools.Subscribe {
		t.Fatalf("capability flags must be false, got %+v", caps.Tools)
	}
}

func TestServer_ListTools_ScopeFiltering(t *testing.T) {
	srv, err := NewServer("t", "1.0.0", WithTools(
		publicTool("open"),
		scopedTool("locked", "admin"),
		scopedTool("very_locked", "admin", "audit"),
	))
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}

	anon := srv.ListTools(nil)
	if len(anon) != 1 || anon[0].Name != "open" {
		t.Fatalf("anonymous caller should see only the public tool, got %+v", anon)
	}

	admin := srv.ListTools([]string{"admin"})
	if len(admin) != 2 {
		t.Fatalf("admin should see 2 tools, got %d", len(admin))
	}
	if admin[0].Name != "open" || admin[1].Name != "locked" {
		t.Fatalf("expected registration order preserved, got %+v", admin)
	}

	all := srv.ListTools([]string{"admin", "audit", "extra"})
	if len(all) != 3 {
		t.Fatalf("superset of scopes should see all tools, got %d", len(all))
	}
}

func TestServer_ListTools_EmptyIsNotNil(t *testing.T) {
	srv, err := NewServer("t", "1.0.0", WithTools(scopedTool("locked", "admin")))
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}
	got := srv.ListTools(nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestServer_ResolveTool_AntiEnumeration(t *testing.T) {
	srv, err := NewServer("t", "1.0.0", WithTools(scopedTool("locked", "admin")))
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}

	_, errMissing := srv.ResolveTool("ghost", nil)
	_, errDenied := srv.ResolveTool("locked", nil)
	if errMissing == nil || errDenied == nil {
		t.Fatal("expected not-found errors")
	}
	wantMissing := "Server error: Tool ghost not found"
	wantDenied := "Server error: Tool locked not found"
	if errMissing.Error() != wantMissing {
		t.Fatalf("unexpected message: %q", errMissing.Error())
	}
	if errDenied.Error() != wantDenied {
		t.Fatalf("unauthorized must read as not found, got %q", errDenied.Error())
	}

	if _, err := srv.ResolveTool("locked", []string{"admin"}); err != nil {
		t.Fatalf("authorized resolve failed: %v", err)
	}
}

func TestServer_ResolvePrompt_AntiEnumeration(t *testing.T) {
	prompt := NewPromptNoArgs("secret", func(_ context.Context) ([]mcp.PromptMessage, error) {
		return nil, nil
	}, WithPromptScopes("ops:read"))
	srv, err := NewServer("t", "1.0.0", WithPrompts(prompt))
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}

	_, errDenied := srv.ResolvePrompt("secret", nil)
	if errDenied == nil || errDenied.Error() != "Server error: Prompt secret not found" {
		t.Fatalf("unauthorized must read as not found, got %v", errDenied)
	}
	if _, err := srv.ResolvePrompt("secret", []string{"ops:read"}); err != nil {
		t.Fatalf("authorized resolve failed: %v", err)
	}
}
