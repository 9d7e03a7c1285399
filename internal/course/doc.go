// Package course describes the playing surface around a height field: where
// the sand is, which walls the ball bounces off, the playable bounds and the
// target. [Course] bundles them and answers the game-rules questions the
// search components ask about a landing position.
package course
