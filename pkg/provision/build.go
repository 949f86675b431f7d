package provision

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cskr/pubsub"
	"go.uber.org/zap"

	"github.com/aetherlink/aetherprov/pkg/firmware"
)

const buildTopic = "build"

// buildEvent is one message from a build worker: a progress line or a
// final result.
type buildEvent struct {
	line   string
	result *OperationResult
}

// BuildAll compiles the given roles, defaulting to all of them. One
// role's failure never stops the others; the map reports each role
// separately. With parallel set, compilations run concurrently but their
// progress lines are pumped through a single subscriber so each role's
// lines stay in order.
func (e *Engine) BuildAll(ctx context.Context, roles []firmware.Role, parallel bool) map[firmware.Role]OperationResult {
	if len(roles) == 0 {
		roles = firmware.Roles()
	}
	if !parallel || len(roles) < 2 {
		results := make(map[firmware.Role]OperationResult, len(roles))
		for _, role := range roles {
			results[role] = e.buildOne(ctx, role, e.progressf)
		}
		return results
	}
	return e.buildParallel(ctx, roles)
}

type progressFunc func(format string, args ...any)

func (e *Engine) buildOne(ctx context.Context, role firmware.Role, emit progressFunc) OperationResult {
	start := time.Now()
	res := OperationResult{Role: role, Op: OpBuild}

	desc, err := e.locate(role)
	if err != nil {
		return e.fail(res, start, &ConfigError{Role: role, Err: err})
	}
	emit("[%s] building %s (%s, %s)", role, desc.Package, e.Layout.Triple, e.Layout.Profile)

	buildCtx, cancel := context.WithTimeout(ctx, e.buildTimeout())
	out, err := e.Builder.BuildPackage(buildCtx, desc.Package)
	cancel()
	if e.Log != nil {
		e.Log.Debug("cargo finished",
			zap.String("role", string(role)),
			zap.String("package", desc.Package),
			zap.String("output", out))
	}
	if err != nil {
		return e.fail(res, start, err)
	}

	res.OK = true
	res.Message = "built " + desc.Package
	res.Duration = time.Since(start)
	emit("[%s] build OK in %s", role, res.Duration.Round(time.Millisecond))
	return res
}

func (e *Engine) buildParallel(ctx context.Context, roles []firmware.Role) map[firmware.Role]OperationResult {
	bus := pubsub.New(len(roles) * 8)
	ch := bus.Sub(buildTopic)

	results := make(map[firmware.Role]OperationResult, len(roles))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range ch {
			ev := msg.(buildEvent)
			if ev.line != "" {
				e.progressf("%s", ev.line)
			}
			if ev.result != nil {
				results[ev.result.Role] = *ev.result
			}
		}
	}()

	var wg sync.WaitGroup
	for _, role := range roles {
		wg.Add(1)
		go func(role firmware.Role) {
			defer wg.Done()
			emit := func(format string, args ...any) {
				bus.Pub(buildEvent{line: fmt.Sprintf(format, args...)}, buildTopic)
			}
			res := e.buildOne(ctx, role, emit)
			bus.Pub(buildEvent{result: &res}, buildTopic)
		}(role)
	}
	wg.Wait()
	bus.Shutdown()
	<-done
	return results
}
