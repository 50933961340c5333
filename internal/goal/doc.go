// Package goal turns free-text personal goals into structured hints.
//
// The package supports:
//   - Requirement extraction: primary activity, secondary focuses, target
//     session length and target frequency
//   - Resolution type classification through an ordered keyword table
//   - Title normalization for display
//
// Every function is pure and never fails. Fields that cannot be derived are
// left at their zero value.
//
// # Usage
//
//	req := goal.Extract("Run a 5k, 30 minutes three times a week", goal.TypeHealth)
//	fmt.Println(req.Activity)          // run
//	fmt.Println(req.TargetDurationMin) // 30
//	fmt.Println(req.TargetFrequency)   // 3x per week
package goal
