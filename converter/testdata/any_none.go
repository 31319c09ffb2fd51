var codec_any = bridge.DynamicCodec

var codec_none = bridge.UnitCodec
