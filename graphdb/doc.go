// Package graphdb exports a correspondence graph to SQLite.
//
// The schema has one row per frame, one row per landmark and one row per
// observation (a landmark seen at a position within a frame), so tracks can be
// queried with plain SQL:
//
//	SELECT f.frame_index FROM observations o
//	JOIN frames f ON f.id = o.frame_id
//	WHERE o.landmark_id = ? ORDER BY f.frame_index;
package graphdb
