var codec_int = bridge.IntCodec

var codec_list_int = bridge.ListCodec(codec_int)
