// Package video extracts poster frames from video files using ffmpeg.
//
// Seven extraction strategies trade accuracy against speed, mapped onto
// ffmpeg's seek modes: output-side seeking decodes every frame up to
// the target (accurate, slow), input-side seeking jumps by keyframe
// (fast, approximate), and the keyframe and skip-frame variants relax
// accuracy further for the fastest possible browse experience over a
// slow card reader.
package video
