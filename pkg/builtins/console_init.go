package builtins

import (
	"fmt"
	"io"
	"strings"
	"time"

	"escore/pkg/vm"
)

type ConsoleInitializer struct{}

func (c *ConsoleInitializer) Name() string {
	return "console"
}

func (c *ConsoleInitializer) Priority() int {
	return PriorityConsole
}

func (c *ConsoleInitializer) InitRuntime(ctx *RuntimeContext) error {
	consoleObj := vm.OrdinaryObjectCreate(ctx.ObjectPrototype)

	timers := make(map[string]time.Time)
	counters := make(map[string]int)
	indent := 0

	// Helper function to format arguments for console output
	formatArgs := func(args []vm.Value) string {
		parts := make([]string, len(args))
		for i, v := range args {
			parts[i] = v.Inspect()
		}
		return strings.Repeat("  ", indent) + strings.Join(parts, " ")
	}

	printer := func(w io.Writer) vm.NativeFunc {
		return func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
			fmt.Fprintln(w, formatArgs(args))
			return vm.Undefined, nil
		}
	}

	label := func(a *vm.Agent, args []vm.Value) (string, error) {
		if v := arg(args, 0); !v.IsUndefined() {
			return vm.ToString(a, v)
		}
		return "default", nil
	}

	defineMethod(ctx, consoleObj, "log", 0, printer(ctx.Stdout))
	defineMethod(ctx, consoleObj, "info", 0, printer(ctx.Stdout))
	defineMethod(ctx, consoleObj, "debug", 0, printer(ctx.Stdout))
	defineMethod(ctx, consoleObj, "error", 0, printer(ctx.Stderr))
	defineMethod(ctx, consoleObj, "warn", 0, printer(ctx.Stderr))
	defineMethod(ctx, consoleObj, "trace", 0, printer(ctx.Stderr))

	defineMethod(ctx, consoleObj, "count", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		l, err := label(a, args)
		if err != nil {
			return vm.Undefined, err
		}
		counters[l]++
		fmt.Fprintf(ctx.Stdout, "%s%s: %d\n", strings.Repeat("  ", indent), l, counters[l])
		return vm.Undefined, nil
	})

	defineMethod(ctx, consoleObj, "countReset", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		l, err := label(a, args)
		if err != nil {
			return vm.Undefined, err
		}
		delete(counters, l)
		return vm.Undefined, nil
	})

	defineMethod(ctx, consoleObj, "time", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		l, err := label(a, args)
		if err != nil {
			return vm.Undefined, err
		}
		timers[l] = time.Now()
		return vm.Undefined, nil
	})

	defineMethod(ctx, consoleObj, "timeEnd", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		l, err := label(a, args)
		if err != nil {
			return vm.Undefined, err
		}
		if startTime, exists := timers[l]; exists {
			elapsed := time.Since(startTime)
			fmt.Fprintf(ctx.Stdout, "%s: %.3fms\n", l, float64(elapsed.Nanoseconds())/1000000.0)
			delete(timers, l)
		} else {
			fmt.Fprintf(ctx.Stderr, "Timer '%s' does not exist\n", l)
		}
		return vm.Undefined, nil
	})

	defineMethod(ctx, consoleObj, "group", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		if len(args) > 0 {
			fmt.Fprintln(ctx.Stdout, formatArgs(args))
		}
		indent++
		return vm.Undefined, nil
	})

	defineMethod(ctx, consoleObj, "groupEnd", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		if indent > 0 {
			indent--
		}
		return vm.Undefined, nil
	})

	defineToStringTag(consoleObj, "console")
	return ctx.DefineGlobal("console", vm.ObjectValue(consoleObj))
}
