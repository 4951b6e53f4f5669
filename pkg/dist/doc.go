// Package dist defines the requirement and distribution data model shared by
// the selector, the mirror builder and the index clients.
//
// # Requirements
//
// A [Requirement] is parsed from a PEP 508 style string:
//
//	req, err := dist.ParseRequirement("Requests[socks] >=2.0, !=2.5.* ; python_version >= '3.8'")
//	req.Key        // "requests"
//	req.Specifiers // [>=2.0 !=2.5.*]
//
// Requirements are values. Two requirements are equal when their normalized
// keys are equal, regardless of specifiers.
//
// # Distributions
//
// A [Distribution] is one candidate artifact for a project: an sdist, an
// egg, a wheel, a VCS checkout or a development checkout on disk. Each
// carries a [Precedence] describing how trustworthy it is as a mirror
// candidate:
//
//	Develop < Checkout < Source < Binary < Egg
//
// [ParseFilename] recovers a distribution from an index link or a local file
// name. Names it cannot split are reported with ok=false.
//
// # Versions
//
// [CompareVersions] orders version strings following PEP 440 (epoch,
// release, pre, post and dev segments, local labels). Strings that are not
// valid PEP 440 sort before every valid version and compare lexically among
// themselves. The comparison is the default [Comparator] for requirements;
// callers that need a different ordering can supply their own through
// [Requirement.WithComparator].
package dist
