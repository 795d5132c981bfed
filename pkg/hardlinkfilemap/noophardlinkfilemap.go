package hardlinkfilemap

import "github.com/autobrr/qmaint/pkg/torrent"

// noopHardlinkFileMap stands in when hardlink mapping is disabled for an
// instance. MinLinks reports no data, so detectors abstain.
type noopHardlinkFileMap struct {
}

func NewNoopHardlinkFileMap() HardlinkFileMapI {
	return &noopHardlinkFileMap{}
}

func (h *noopHardlinkFileMap) AddByTorrent(*torrent.Torrent) {
}

func (h *noopHardlinkFileMap) RemoveByTorrent(*torrent.Torrent) {
}

func (h *noopHardlinkFileMap) MinLinks(*torrent.Torrent) (uint64, bool) {
	return 0, false
}

func (h *noopHardlinkFileMap) Length() int {
	return 0
}
