// Package keyscan searches a bounded secp256k1 keyspace for a key whose
// derived identifier (a P2PKH address or its HASH160) matches a known target.
//
// Candidates come from an Enumerator, are pruned by a cheap HexFilter, and the
// survivors are derived by a KeyEvaluator and compared by a Matcher.
//
// # Quick Start
//
//	import "github.com/mahdiidarabi/keyscan/pkg/keyscan"
//
//	r, _ := keyscan.ParseRange("0x1", "0xffff")
//	matcher, err := keyscan.NewMatcher("1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", keyscan.Exact(), keyscan.FormatP2PKH)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client := keyscan.NewClient(matcher).
//	    WithEvaluator(keyscan.P2PKHEvaluator{Compressed: true})
//
//	enum, _ := keyscan.NewEnumerator(keyscan.StrategyGuided, r, keyscan.DefaultStrategyConfig())
//	found, err := client.Search(ctx, enum, keyscan.ModeFirstMatch)
//
// # Strategies
//
// Three enumeration orders are available:
//
//   - StrategyUniform samples the range at evenly spaced percentages.
//   - StrategyExhaustive walks every value in increasing order.
//   - StrategyGuided walks the binary path tree (children 2n and 2n+1) depth
//     first, pruned by an allow-list of path prefixes mined from solved keys
//     with the pathtree package.
//
// Every enumerator exposes a Position that can be persisted and restored, so a
// long scan can stop and resume without re-testing candidates.
//
// # Custom Evaluators
//
// Implement the KeyEvaluator interface, or wrap a function with EvaluatorFunc:
//
//	client := keyscan.NewClient(matcher).WithEvaluator(keyscan.EvaluatorFunc(
//	    func(c keyscan.Candidate) (string, error) {
//	        return c.Value.Text(10), nil
//	    }))
package keyscan
