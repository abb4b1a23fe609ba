package bluetooth

// SppChannelID identifies an SPP data channel.
type SppChannelID uint8

// SppChannelResultCallback receives the outcome of a channel connection.
type SppChannelResultCallback func(Error, SppChannelID)

// SppChannelStateResultCallback receives the connection state of a channel.
type SppChannelStateResultCallback func(Error, bool)

// SppObserver receives SPP channel events.
type SppObserver interface {
	ChannelStateChanged(address, uuid string, channel SppChannelID, connected bool)
	DataReceived(channel SppChannelID, data []byte)
}

// SppProfile is the Serial Port Profile.
type SppProfile interface {
	Profile

	RegisterSppObserver(observer SppObserver)

	ChannelState(address, uuid string, cb SppChannelStateResultCallback)
	ConnectUUID(address, uuid string, cb SppChannelResultCallback)
	DisconnectUUID(channel SppChannelID, cb ResultCallback)
	WriteData(channel SppChannelID, data []byte, cb ResultCallback)

	CreateChannel(name, uuid string) Error
	RemoveChannel(uuid string) Error
}
