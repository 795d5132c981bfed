package hardlinkfilemap

import "github.com/autobrr/qmaint/pkg/torrent"

type HardlinkFileMapI interface {
	AddByTorrent(torrent *torrent.Torrent)
	RemoveByTorrent(torrent *torrent.Torrent)
	MinLinks(torrent *torrent.Torrent) (uint64, bool)
	Length() int
}
