package layout_test

import (
	"fmt"

	"github.com/One-com/gone/layout"
	"github.com/One-com/gone/layout/syslog"
)

func ExampleCompile() {
	tpl := layout.MustCompile("${level:uppercase=true}|${message}")

	e := layout.NewEvent(syslog.LOG_ERR, "disk full")
	fmt.Println(tpl.Render(e))
	// Output:
	// ERROR|disk full
}

func ExampleParseCondition() {
	cond, err := layout.ParseCondition(`level >= LogLevel.Warn and message like "err*"`)
	if err != nil {
		panic(err)
	}

	fmt.Println(cond.EvaluateBool(layout.NewEvent(syslog.LOG_ERR, "error occurred")))
	fmt.Println(cond.EvaluateBool(layout.NewEvent(syslog.LOG_INFO, "error occurred")))
	// Output:
	// true
	// false
}

func ExampleTemplate_Precalculate() {
	tpl := layout.MustCompile("${goroutine}:${message}")

	e := layout.NewEvent(syslog.LOG_INFO, "queued")
	// An asynchronous writer must capture goroutine-dependent output on
	// the logging goroutine before queueing the event elsewhere.
	tpl.Precalculate(e)

	done := make(chan string)
	go func() { done <- tpl.Render(e) }()
	line := <-done

	fmt.Println(line == tpl.Render(e))
	// Output:
	// true
}

func Example_wrapperStacking() {
	tpl := layout.MustCompile("${message:padding=10:uppercase=true}")

	e := layout.NewEvent(syslog.LOG_INFO, "hi")
	fmt.Printf("%q\n", tpl.Render(e))
	// Output:
	// "        HI"
}
