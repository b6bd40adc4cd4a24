// Package runtime materializes raw bundle bytes into invocable module
// instances. It defines the Module capability surface every bundle must
// expose and two materializer implementations: a declarative manifest
// format and a compiled Go plugin (.so) format.
package runtime
