// Package validate implements the validation state and transition engine.
//
// The engine's entire state is one immutable ValidationState value holding
// dirtied ranges, in-flight requests, accepted results, and throttle
// bookkeeping. Every change flows through Transition, a pure reducer that
// first re-maps all range-bearing fields through the document edit that
// accompanied it, then applies at most one semantic action. No component
// mutates a previously published state.
//
// Concurrency is confined to the boundary: checking-service calls resolve
// in any order, and a result is admitted only if, after being relocated
// through its request's accumulated mapping, it does not overlap any range
// dirtied since the request was dispatched. Dirtying always wins over
// acceptance.
package validate
