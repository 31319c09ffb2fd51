var codec_int = bridge.IntCodec
