package risk

import (
	"math"

	"github.com/watchher-data/risk.report/internal/perception"
)

const (
	// Keypoints below this confidence are treated as missing.
	keypointMinConfidence = 0.5

	// Hands count as near the face within this fraction of torso height
	// from the nose.
	handsNearFaceTorsoFraction = 0.33
)

func keypointUsable(kp perception.Keypoint) bool {
	return kp.Confidence >= keypointMinConfidence
}

// armsRaised reports whether both wrists sit above their shoulders. All four
// keypoints must be present; a partial pose never triggers the signal.
func armsRaised(kps []perception.Keypoint) bool {
	if len(kps) < perception.KeypointCount {
		return false
	}
	lw := kps[perception.KeypointLeftWrist]
	rw := kps[perception.KeypointRightWrist]
	ls := kps[perception.KeypointLeftShoulder]
	rs := kps[perception.KeypointRightShoulder]
	if !keypointUsable(lw) || !keypointUsable(rw) || !keypointUsable(ls) || !keypointUsable(rs) {
		return false
	}
	// Image y grows downward.
	return lw.Y < ls.Y && rw.Y < rs.Y
}

// handsNearFace reports whether either wrist is within a torso-height
// fraction of the nose. Torso height anchors the threshold to the person's
// apparent scale, so the signal works at any distance from the camera.
func handsNearFace(kps []perception.Keypoint) bool {
	if len(kps) < perception.KeypointCount {
		return false
	}
	nose := kps[perception.KeypointNose]
	ls := kps[perception.KeypointLeftShoulder]
	rs := kps[perception.KeypointRightShoulder]
	lh := kps[perception.KeypointLeftHip]
	rh := kps[perception.KeypointRightHip]
	if !keypointUsable(nose) || !keypointUsable(ls) || !keypointUsable(rs) ||
		!keypointUsable(lh) || !keypointUsable(rh) {
		return false
	}

	shoulderMidY := (ls.Y + rs.Y) / 2
	hipMidY := (lh.Y + rh.Y) / 2
	torso := math.Abs(hipMidY - shoulderMidY)
	if torso <= 0 {
		return false
	}
	limit := handsNearFaceTorsoFraction * torso

	for _, idx := range []int{perception.KeypointLeftWrist, perception.KeypointRightWrist} {
		w := kps[idx]
		if !keypointUsable(w) {
			continue
		}
		if math.Hypot(w.X-nose.X, w.Y-nose.Y) <= limit {
			return true
		}
	}
	return false
}

// horizontalOrientation reports whether the shoulder-to-hip axis lies more
// horizontal than vertical, the signature of a person on the ground. Missing
// or low-confidence keypoints leave the flag false.
func horizontalOrientation(kps []perception.Keypoint) bool {
	if len(kps) < perception.KeypointCount {
		return false
	}
	ls := kps[perception.KeypointLeftShoulder]
	rs := kps[perception.KeypointRightShoulder]
	lh := kps[perception.KeypointLeftHip]
	rh := kps[perception.KeypointRightHip]
	if !keypointUsable(ls) || !keypointUsable(rs) || !keypointUsable(lh) || !keypointUsable(rh) {
		return false
	}

	dx := (lh.X+rh.X)/2 - (ls.X+rs.X)/2
	dy := (lh.Y+rh.Y)/2 - (ls.Y+rs.Y)/2
	return math.Abs(dx) > math.Abs(dy)
}
