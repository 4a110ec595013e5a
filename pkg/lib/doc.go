// Package lib provides a Go SDK for running domain audits programmatically.
//
// The SDK drives the same loader the domaudit CLI shows: the audit is issued
// to the backend while simulated stages and progress run in parallel, and the
// result is returned once the audit finished and the loader held its final
// state for the grace interval.
//
// # Quick Start
//
//	client, err := lib.New(lib.Config{BaseURL: "http://localhost:8000"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := client.Audit(ctx, "example.com", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, name := range res.SectionNames() {
//	    fmt.Println(name)
//	}
//
// # Progress
//
// Pass [AuditOpts].OnProgress to get every loader change while the audit is
// pending, this is how the CLI plain UI renders its progress line:
//
//	client.Audit(ctx, "example.com", &lib.AuditOpts{
//	    OnProgress: func(p lib.Progress) {
//	        fmt.Printf("%3d%% %s\n", p.Percent, p.StageLabel)
//	    },
//	})
//
// # Engines
//
//   - [EngineHTTP]: audits against the backend `GET /audit/{domain}` endpoint.
//   - [EngineFake]: in-process audits with a configurable latency and failure,
//     no backend needed. Use it for tests.
//
// # Error Handling
//
// All methods return errors that can be inspected with [errors.Is]:
//
//   - [ErrNotValid]: invalid input (e.g. a blank domain) or configuration.
//   - [ErrNotFound]: the stages file does not exist.
//   - [ErrTimedOut]: the audit took longer than [Config].MaxWait.
//   - [ErrAuditFailed]: the backend audit failed, the error text is the reason.
//
// # Thread Safety
//
// A [Client] is safe for concurrent use, every [Client.Audit] call runs its own
// loader.
package lib
