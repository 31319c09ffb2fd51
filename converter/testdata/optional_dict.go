var codec_dict_str_float = bridge.MapCodec(codec_str, codec_float)

var codec_opt_dict_str_float = bridge.OptionalCodec(codec_dict_str_float)

var codec_float = bridge.FloatCodec

var codec_str = bridge.StrCodec
